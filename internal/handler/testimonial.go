package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/listing"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/service"
)

// TestimonialHandler serves the testimonial wall.
//
// PERMISSIONS:
//
//	list            anyone; hidden entries sort last
//	create          any signed-in user, authored as themselves
//	edit content    the author only
//	hide / show     admin only
//	delete          admin only (enforced by the router)
type TestimonialHandler struct {
	testimonials *service.TestimonialService
	logger       *slog.Logger
}

func NewTestimonialHandler(testimonials *service.TestimonialService, logger *slog.Logger) *TestimonialHandler {
	return &TestimonialHandler{testimonials: testimonials, logger: orDiscard(logger)}
}

// createTestimonialRequest leaves out userId on purpose: the author is
// always the caller.
type createTestimonialRequest struct {
	Content string `json:"content"`
}

// HandleList: GET /api/testimonials.
func (h *TestimonialHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ts, err := h.testimonials.GetAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	viewer := auth.ViewerFromContext(r.Context())
	writeJSON(w, http.StatusOK, access.ViewTestimonials(viewer, listing.SortTestimonials(ts)))
}

// HandleCreate: POST /api/testimonials (authenticated).
func (h *TestimonialHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerFromContext(r.Context())
	if !viewer.IsAuthenticated() {
		writeError(w, h.logger, apperror.Unauthorized("sign in to leave a testimonial"))
		return
	}

	var req createTestimonialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	t, err := h.testimonials.Create(r.Context(), model.TestimonialDraft{
		UserID:  viewer.UserID,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// HandleUpdate: PUT /api/testimonials/{id}.
// A patch touching content needs the author; one touching isHidden needs an admin.
func (h *TestimonialHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch model.TestimonialPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	current, err := h.testimonials.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	viewer := auth.ViewerFromContext(r.Context())
	if patch.Content != nil && !access.CanEditTestimonial(viewer, current) {
		writeError(w, h.logger, apperror.Forbidden("only the author can edit a testimonial"))
		return
	}
	if patch.IsHidden != nil && !access.CanModerate(viewer) {
		writeError(w, h.logger, apperror.Forbidden("only an admin can hide or show a testimonial"))
		return
	}

	t, err := h.testimonials.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleDelete: DELETE /api/testimonials/{id} (admin).
func (h *TestimonialHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.testimonials.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
