package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

type dailyQuery struct {
	Branch string `form:"branch"`
	Start  string `form:"start"`
	End    string `form:"end"`
}

type monthlyQuery struct {
	Branch string `form:"branch"`
	Month  string `form:"month"`
}

func bindDailyQuery(c *gin.Context) (dailyQuery, error) {
	var q dailyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, invalidRequestError()
	}
	q.Branch = strings.TrimSpace(q.Branch)
	q.Start = strings.TrimSpace(q.Start)
	q.End = strings.TrimSpace(q.End)
	return q, nil
}

func bindMonthlyQuery(c *gin.Context) (monthlyQuery, error) {
	var q monthlyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, invalidRequestError()
	}
	q.Branch = strings.TrimSpace(q.Branch)
	q.Month = strings.TrimSpace(q.Month)
	return q, nil
}

// reportBranch reads the branch a report or export is scoped to.
func reportBranch(c *gin.Context) string {
	return strings.TrimSpace(c.Query("branch"))
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
