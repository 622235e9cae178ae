package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fellowship-vote-ledger/internal/api/service"
)

type StatsHandler struct {
	stats  service.StatisticsService
	logger *slog.Logger
}

func NewStatsHandler(logger *slog.Logger, stats service.StatisticsService) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// GetVoteStatistics answers GET /stats/votes?color=&family=&from=&to=
func (h *StatsHandler) GetVoteStatistics(c *gin.Context) {
	var q StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	filters, msg := q.filters()
	if msg != "" {
		RespondBadRequest(c, msg)
		return
	}

	stats, err := h.stats.GetVoteStatistics(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("Failed to compute vote statistics", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, stats)
}

// GetColorAggregate answers GET /stats/colors with the materialized per-color totals
func (h *StatsHandler) GetColorAggregate(c *gin.Context) {
	agg, err := h.stats.GetColorAggregate(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read color aggregate", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, agg)
}

// filters converts the query into service filters. A non-empty message names the bad field.
func (q StatsQuery) filters() (service.Filters, string) {
	from, err := parseOptionalTime(q.From)
	if err != nil {
		return service.Filters{}, "from must be an RFC3339 timestamp"
	}
	to, err := parseOptionalTime(q.To)
	if err != nil {
		return service.Filters{}, "to must be an RFC3339 timestamp"
	}
	return service.Filters{Color: q.Color, Family: q.Family, From: from, To: to}, ""
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
