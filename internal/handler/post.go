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

// RelatedPosts is how many other posts the post page suggests.
const RelatedPosts = 3

type PostHandler struct {
	posts   *service.PostService
	metrics LockRecorder
	logger  *slog.Logger
}

func NewPostHandler(posts *service.PostService, metrics LockRecorder, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, metrics: orNop(metrics), logger: orDiscard(logger)}
}

// PostPage is a single post plus suggestions, all gated for the viewer.
type PostPage struct {
	Post    access.PostView   `json:"post"`
	Related []access.PostView `json:"related"`
}

// HandleList: GET /api/posts?q=term. Newest first. A locked post matches
// on title and excerpt only.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.GetAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	role := auth.ViewerFromContext(r.Context()).Role
	posts = listing.SearchPosts(listing.SortPosts(posts), r.URL.Query().Get("q"), func(p model.BlogPost) bool {
		return access.CanAccess(role, p.AllowedRoles)
	})

	views := access.GatePosts(role, posts)
	h.metrics.RecordLocked("post", access.CountLocked(views))
	writeJSON(w, http.StatusOK, views)
}

// HandleGet: GET /api/posts/{id}. A locked post keeps its excerpt.
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	all, err := h.posts.GetAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	role := auth.ViewerFromContext(r.Context()).Role
	page := PostPage{
		Post:    access.GatePost(role, post),
		Related: access.GatePosts(role, listing.Related(listing.SortPosts(all), id, RelatedPosts)),
	}
	if page.Post.Locked {
		h.metrics.RecordLocked("post", 1)
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleCreate: POST /api/posts (admin). A blank excerpt is derived from content.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var draft model.PostDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.posts.Create(r.Context(), draft)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate: PUT /api/posts/{id} (admin).
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch model.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete: DELETE /api/posts/{id} (admin).
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
