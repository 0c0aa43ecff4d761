package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/backoffice/internal/observability/logger"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/smallbiznis/backoffice/internal/summary/export"
	"go.uber.org/zap"
)

func (s *Server) GetDailySummary(c *gin.Context) {
	report, ok := s.runDaily(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) GetMonthlySummary(c *gin.Context) {
	report, ok := s.runMonthly(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) ExportDailySummary(c *gin.Context) {
	report, ok := s.runDaily(c)
	if !ok {
		return
	}
	s.writeWorkbook(c, report)
}

func (s *Server) ExportMonthlySummary(c *gin.Context) {
	report, ok := s.runMonthly(c)
	if !ok {
		return
	}
	s.writeWorkbook(c, report)
}

func (s *Server) runDaily(c *gin.Context) (*domain.Report, bool) {
	q, err := bindDailyQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}

	report, err := s.summarySvc.Daily(c.Request.Context(), domain.DailyRequest{
		Kind:   c.Param("kind"),
		Branch: q.Branch,
		Start:  q.Start,
		End:    q.End,
	})
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	c.Set("run_id", report.RunID)
	return report, true
}

func (s *Server) runMonthly(c *gin.Context) (*domain.Report, bool) {
	q, err := bindMonthlyQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}

	report, err := s.summarySvc.Monthly(c.Request.Context(), domain.MonthlyRequest{
		Kind:   c.Param("kind"),
		Branch: q.Branch,
		Month:  q.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	c.Set("run_id", report.RunID)
	return report, true
}

func (s *Server) writeWorkbook(c *gin.Context, report *domain.Report) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report); err != nil {
		logger.FromContext(c.Request.Context()).Error("failed to render workbook", zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(report)))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
