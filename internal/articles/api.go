package articles

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/newsdesk/newsdesk/internal/editorial"
	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/platform/httpx"
	"github.com/newsdesk/newsdesk/internal/shared"
)

// APIHandler wires the JSON surface for the article lifecycle.
type APIHandler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewAPIHandler constructs an APIHandler.
func NewAPIHandler(logger *slog.Logger, service *Service) *APIHandler {
	return &APIHandler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers JSON endpoints on the provided router.
func (h *APIHandler) MountRoutes(r chi.Router) {
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/mine", h.mine)
		r.Get("/feed", h.feed)
		r.Get("/review", h.review)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
}

type articlePayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Body        string `json:"body" validate:"required"`
	CoverURL    string `json:"cover_url" validate:"omitempty,url"`
	PublisherID int64  `json:"publisher_id" validate:"required,gt=0"`
}

type articleDTO struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body"`
	CoverURL    string     `json:"cover_url,omitempty"`
	PublisherID int64      `json:"publisher_id"`
	Publisher   string     `json:"publisher,omitempty"`
	AuthorID    int64      `json:"author_id"`
	Author      string     `json:"author,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

type listResponse struct {
	Items      []articleDTO `json:"items"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
}

func toDTO(a *Article) articleDTO {
	return articleDTO{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Body:        a.Body,
		CoverURL:    a.CoverURL,
		PublisherID: a.PublisherID,
		Publisher:   a.PublisherName,
		AuthorID:    a.AuthorID,
		Author:      a.AuthorName,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		ApprovedAt:  a.ApprovedAt,
	}
}

func toDTOs(items []Article) []articleDTO {
	out := make([]articleDTO, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out
}

func (h *APIHandler) list(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), user, page, perPage)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Items:      toDTOs(items),
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		Total:      pagination.Total,
		TotalPages: pagination.TotalPages,
	})
}

func (h *APIHandler) mine(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, h.service.Mine)
}

func (h *APIHandler) feed(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, h.service.Subscribed)
}

func (h *APIHandler) review(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, h.service.ReviewQueue)
}

func (h *APIHandler) listing(w http.ResponseWriter, r *http.Request, load func(context.Context, *identity.User) ([]Article, error)) {
	user := shared.IdentityFromContext(r.Context())
	items, err := load(r.Context(), user)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": toDTOs(items)})
}

func (h *APIHandler) get(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	article, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(article))
}

func (h *APIHandler) create(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	article, err := h.service.Create(r.Context(), user, CreateArticleInput{
		Title:       payload.Title,
		Body:        payload.Body,
		CoverURL:    payload.CoverURL,
		PublisherID: payload.PublisherID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDTO(article))
}

func (h *APIHandler) update(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	article, err := h.service.Update(r.Context(), user, id, UpdateArticleInput{
		Title:       payload.Title,
		Body:        payload.Body,
		CoverURL:    payload.CoverURL,
		PublisherID: payload.PublisherID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(article))
}

func (h *APIHandler) remove(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), user, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) submit(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	if err := h.service.Submit(r.Context(), user, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(editorial.StatusPending)})
}

func (h *APIHandler) approve(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	article, err := h.service.Approve(r.Context(), user, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(article))
}

func (h *APIHandler) reject(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	if err := h.service.Reject(r.Context(), user, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(editorial.StatusDraft)})
}

func (h *APIHandler) decodePayload(w http.ResponseWriter, r *http.Request) (articlePayload, bool) {
	var payload articlePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return payload, false
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return payload, false
	}
	return payload, true
}

func (h *APIHandler) articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such article")
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto problem responses. Denials
// answer with the status the gateway suggests, so a concealed ownership
// refusal is indistinguishable from a missing row.
func (h *APIHandler) respondError(w http.ResponseWriter, err error) {
	if denial, ok := editorial.AsDenial(err); ok {
		status := denial.StatusCode()
		switch status {
		case http.StatusNotFound:
			httpx.Problem(w, status, "Not Found", "no such article")
		case http.StatusInternalServerError:
			httpx.Problem(w, status, "Internal Error", "")
		default:
			httpx.Problem(w, status, http.StatusText(status), string(denial.Reason))
		}
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such article")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "title, body and publisher are required")
	case errors.Is(err, editorial.ErrIllegalTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", "illegal_transition")
	default:
		h.logger.Error("article api", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
