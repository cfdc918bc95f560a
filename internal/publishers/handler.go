package publishers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/platform/httpx"
	"github.com/newsdesk/newsdesk/internal/shared"
	"github.com/newsdesk/newsdesk/internal/view"
)

// Handler wires publisher listings and subscription toggles.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrfManager: csrf}
}

// MountRoutes registers publisher routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/publishers", func(r chi.Router) {
		r.Get("/", h.showList)
		r.Post("/{id}/subscribe", h.subscribePublisher)
		r.Post("/{id}/unsubscribe", h.unsubscribePublisher)
	})
	r.Route("/journalists", func(r chi.Router) {
		r.Post("/{id}/subscribe", h.subscribeJournalist)
		r.Post("/{id}/unsubscribe", h.unsubscribeJournalist)
	})
}

// MountAPIRoutes registers JSON endpoints.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Route("/publishers", func(r chi.Router) {
		r.Get("/", h.apiList)
		r.Post("/{id}/subscribe", h.apiToggle(h.service.SubscribePublisher))
		r.Post("/{id}/unsubscribe", h.apiToggle(h.service.UnsubscribePublisher))
	})
	r.Route("/journalists", func(r chi.Router) {
		r.Post("/{id}/subscribe", h.apiToggle(h.service.SubscribeJournalist))
		r.Post("/{id}/unsubscribe", h.apiToggle(h.service.UnsubscribeJournalist))
	})
}

type listPageData struct {
	Publishers []Publisher
	Staff      map[int64][]Staffer
	Subscribed map[int64]bool
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	outlets, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list publishers", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	staff, err := h.service.Staff(r.Context())
	if err != nil {
		h.logger.Warn("load publisher staff", slog.Any("error", err))
	}
	subscribed := make(map[int64]bool)
	if user != nil {
		publisherIDs, _, err := h.service.Subscriptions(r.Context(), user)
		if err != nil {
			h.logger.Warn("load subscriptions", slog.Any("error", err))
		}
		for _, id := range publisherIDs {
			subscribed[id] = true
		}
	}
	h.renderPage(w, r, "pages/publishers.html", "Publishers", listPageData{
		Publishers: outlets,
		Staff:      staff,
		Subscribed: subscribed,
	})
}

func (h *Handler) subscribePublisher(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "Subscribed", h.service.SubscribePublisher)
}

func (h *Handler) unsubscribePublisher(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "Unsubscribed", h.service.UnsubscribePublisher)
}

func (h *Handler) subscribeJournalist(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "Subscribed", h.service.SubscribeJournalist)
}

func (h *Handler) unsubscribeJournalist(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "Unsubscribed", h.service.UnsubscribeJournalist)
}

type subscriptionFunc func(ctx context.Context, actor *identity.User, id int64) error

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, message string, apply subscriptionFunc) {
	user := shared.IdentityFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}
	if err := apply(r.Context(), user, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotJournalist):
			http.NotFound(w, r)
		case errors.Is(err, ErrSubscriberRole):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			h.logger.Error("toggle subscription", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	}
	referer := r.Referer()
	if referer == "" {
		referer = "/publishers"
	}
	http.Redirect(w, r, referer, http.StatusSeeOther)
}

type stafferDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type publisherDTO struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty"`
	Staff       []stafferDTO `json:"staff,omitempty"`
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list publishers", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	staff, err := h.service.Staff(r.Context())
	if err != nil {
		h.logger.Error("list publisher staff", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	items := make([]publisherDTO, 0, len(outlets))
	for _, p := range outlets {
		dto := publisherDTO{ID: p.ID, Name: p.Name, Slug: p.Slug, Description: p.Description}
		for _, s := range staff[p.ID] {
			dto.Staff = append(dto.Staff, stafferDTO{ID: s.UserID, Name: s.Name, Role: string(s.Role)})
		}
		items = append(items, dto)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) apiToggle(apply subscriptionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := shared.IdentityFromContext(r.Context())
		if user == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such target")
			return
		}
		if err := apply(r.Context(), user, id); err != nil {
			switch {
			case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotJournalist):
				httpx.Problem(w, http.StatusNotFound, "Not Found", "no such target")
			case errors.Is(err, ErrSubscriberRole):
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "only readers subscribe")
			default:
				h.logger.Error("toggle subscription", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        shared.IdentityFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render page", slog.String("page", page), slog.Any("error", err))
	}
}
