package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/service"
)

// DashboardHandler serves the landing page feed and the admin statistics.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   LockRecorder
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, metrics LockRecorder, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: orNop(metrics), logger: orDiscard(logger)}
}

type homeResponse struct {
	Videos []access.VideoView `json:"videos"`
	Posts  []access.PostView  `json:"posts"`
}

// HandleHome: GET /api/home. The newest videos and posts, gated.
func (h *DashboardHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	feed, err := h.dashboard.Home(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	role := auth.ViewerFromContext(r.Context()).Role
	resp := homeResponse{
		Videos: access.GateVideos(role, feed.Videos),
		Posts:  access.GatePosts(role, feed.Posts),
	}
	h.metrics.RecordLocked("video", access.CountLocked(resp.Videos))
	h.metrics.RecordLocked("post", access.CountLocked(resp.Posts))
	writeJSON(w, http.StatusOK, resp)
}

// HandleStats: GET /api/admin/stats (admin).
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
