package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/listing"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/service"
)

// VideoHandler serves the two video listing pages, the lesson player and
// the admin video editor.
type VideoHandler struct {
	videos  *service.VideoService
	metrics LockRecorder
	logger  *slog.Logger
}

func NewVideoHandler(videos *service.VideoService, metrics LockRecorder, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, metrics: orNop(metrics), logger: orDiscard(logger)}
}

// HandleList returns the gated listing.
//
// HTTP: GET /api/videos?category=membership&q=habit
//
// Without category every video is listed. Locked videos stay in the list
// with their body stripped.
func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerFromContext(r.Context())

	videos, err := h.videos.GetAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		videos = listing.VideosForCategory(videos, category)
	} else {
		videos = listing.SortVideos(videos)
	}
	videos = listing.SearchVideos(videos, r.URL.Query().Get("q"), func(v model.Video) bool {
		return access.CanAccess(viewer.Role, v.AllowedRoles)
	})

	views := access.GateVideos(viewer.Role, videos)
	h.metrics.RecordLocked("video", access.CountLocked(views))
	writeJSON(w, http.StatusOK, views)
}

// HandleGet returns one video with its lesson playlist, or locked without it.
//
// HTTP: GET /api/videos/{id}
func (h *VideoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	video, err := h.videos.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	view := access.GateVideo(auth.ViewerFromContext(r.Context()).Role, video)
	if view.Locked {
		h.metrics.RecordLocked("video", 1)
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleCreate: POST /api/videos (admin).
func (h *VideoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var draft model.VideoDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, h.logger, err)
		return
	}

	video, err := h.videos.Create(r.Context(), draft)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

// HandleUpdate applies a partial update. Fields left out of the body keep
// their stored value.
//
// HTTP: PUT /api/videos/{id} (admin)
func (h *VideoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch model.VideoPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	video, err := h.videos.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// HandleDelete: DELETE /api/videos/{id} (admin).
func (h *VideoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.videos.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
