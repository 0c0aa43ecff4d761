package tracing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestSafeAttributesDropsUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("report.kind", "expense"),
		attribute.String("db.statement", "SELECT * FROM finance_orders"),
		attribute.Int("report.rows", 12),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("report.kind"), attrs[0].Key)
	assert.Equal(t, attribute.Key("report.rows"), attrs[1].Key)
}

func TestSafeErrorKeepsOutermostMessage(t *testing.T) {
	err := fmt.Errorf("list documents: %w", errors.New("pq: relation finance_orders does not exist"))
	assert.EqualError(t, SafeError(err), "list documents")
	assert.Nil(t, SafeError(nil))
}

func TestGinMiddlewareStartsServerSpan(t *testing.T) {
	_, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)

	var span trace.Span
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		span = trace.SpanFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotNil(t, span)
	assert.NotNil(t, otel.GetTracerProvider())
}
