package handlers

import (
	"context"
	"net/http"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

type StatsSource interface {
	GlobalStats(ctx context.Context) model.GlobalStats
}

type StatsHandler struct {
	source StatsSource
}

func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, APIError{
			Code:    "STATS_UNAVAILABLE",
			Message: "stats source is unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.source.GlobalStats(r.Context()))
}
