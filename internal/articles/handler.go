package articles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/newsdesk/newsdesk/internal/editorial"
	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/publishers"
	"github.com/newsdesk/newsdesk/internal/shared"
	"github.com/newsdesk/newsdesk/internal/view"
)

// Handler wires the HTML surface for the article lifecycle.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	publisherSvc *publishers.Service
	templates    *view.Engine
	csrfManager  *shared.CSRFManager
	validator    *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, publisherSvc *publishers.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		publisherSvc: publisherSvc,
		templates:    templates,
		csrfManager:  csrf,
		validator:    validator.New(),
	}
}

// MountRoutes registers article routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showLanding)
	r.Get("/mine", h.showMine)
	r.Get("/feed", h.showFeed)
	r.Get("/review", h.showReview)
	r.Get("/dashboard", h.showDashboard)
	r.Route("/articles", func(r chi.Router) {
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.showDetail)
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}", h.handleUpdate)
		r.Post("/{id}/delete", h.handleDelete)
		r.Post("/{id}/submit", h.handleSubmit)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/reject", h.handleReject)
	})
}

type articleForm struct {
	Title       string `validate:"required,max=200"`
	Body        string `validate:"required"`
	CoverURL    string `validate:"omitempty,url"`
	PublisherID int64  `validate:"required,gt=0"`
}

type listPageData struct {
	Heading    string
	Articles   []Article
	Pagination shared.Pagination
}

type detailPageData struct {
	Article   *Article
	IsOwner   bool
	CanReview bool
}

type formPageData struct {
	Article    *Article
	Form       articleForm
	Errors     map[string]string
	Publishers []publishers.Publisher
}

type dashboardPageData struct {
	Pending []Article
	Drafts  []Article
}

func (h *Handler) showLanding(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	items, pagination, err := h.service.List(r.Context(), user, page, 20)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/landing.html", "Latest news", listPageData{
		Heading:    "Latest news",
		Articles:   items,
		Pagination: pagination,
	}, http.StatusOK)
}

func (h *Handler) showMine(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	items, err := h.service.Mine(r.Context(), user)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/article_list.html", "My articles", listPageData{
		Heading:  "My articles",
		Articles: items,
	}, http.StatusOK)
}

func (h *Handler) showFeed(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	items, err := h.service.Subscribed(r.Context(), user)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/article_list.html", "My feed", listPageData{
		Heading:  "My feed",
		Articles: items,
	}, http.StatusOK)
}

func (h *Handler) showReview(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	items, err := h.service.ReviewQueue(r.Context(), user)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/review.html", "Review queue", listPageData{
		Heading:  "Review queue",
		Articles: items,
	}, http.StatusOK)
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	dashboard, err := h.service.DashboardData(r.Context(), user)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/dashboard.html", "Editorial dashboard", dashboardPageData{
		Pending: dashboard.Pending,
		Drafts:  dashboard.Drafts,
	}, http.StatusOK)
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	article, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/article_detail.html", article.Title, detailPageData{
		Article:   article,
		IsOwner:   user != nil && user.ID == article.AuthorID,
		CanReview: user.IsEditor() || user.IsAdmin(),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	if err := h.service.AllowCreate(user); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	outlets, err := h.publisherSvc.List(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/article_form.html", "New article", formPageData{
		Publishers: outlets,
	}, http.StatusOK)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	form, fieldErrors, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if len(fieldErrors) == 0 {
		article, err := h.service.Create(r.Context(), user, CreateArticleInput{
			Title:       form.Title,
			Body:        form.Body,
			CoverURL:    form.CoverURL,
			PublisherID: form.PublisherID,
		})
		if err == nil {
			h.flash(r, "success", "Draft saved")
			http.Redirect(w, r, "/articles/"+strconv.FormatInt(article.ID, 10), http.StatusSeeOther)
			return
		}
		if !errors.Is(err, ErrValidation) {
			h.renderFailure(w, r, err)
			return
		}
		fieldErrors["general"] = "Title, body and publisher are required"
	}
	outlets, err := h.publisherSvc.List(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/article_form.html", "New article", formPageData{
		Form:       form,
		Errors:     fieldErrors,
		Publishers: outlets,
	}, http.StatusBadRequest)
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	article, err := h.service.ForEdit(r.Context(), user, id)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	outlets, err := h.publisherSvc.List(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, "pages/article_form.html", "Edit article", formPageData{
		Article: article,
		Form: articleForm{
			Title:       article.Title,
			Body:        article.Body,
			CoverURL:    article.CoverURL,
			PublisherID: article.PublisherID,
		},
		Publishers: outlets,
	}, http.StatusOK)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	form, fieldErrors, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if len(fieldErrors) > 0 {
		outlets, err := h.publisherSvc.List(r.Context())
		if err != nil {
			h.renderFailure(w, r, err)
			return
		}
		h.renderPage(w, r, "pages/article_form.html", "Edit article", formPageData{
			Article:    &Article{ID: id},
			Form:       form,
			Errors:     fieldErrors,
			Publishers: outlets,
		}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.Update(r.Context(), user, id, UpdateArticleInput{
		Title:       form.Title,
		Body:        form.Body,
		CoverURL:    form.CoverURL,
		PublisherID: form.PublisherID,
	}); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.flash(r, "success", "Article updated")
	http.Redirect(w, r, "/articles/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), user, id); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.flash(r, "success", "Article deleted")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "Submitted for review", func(user *identity.User, id int64) error {
		return h.service.Submit(r.Context(), user, id)
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "Article approved", func(user *identity.User, id int64) error {
		_, err := h.service.Approve(r.Context(), user, id)
		return err
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "Returned to draft", func(user *identity.User, id int64) error {
		return h.service.Reject(r.Context(), user, id)
	})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, message string, apply func(*identity.User, int64) error) {
	user := shared.IdentityFromContext(r.Context())
	id, ok := h.articleID(w, r)
	if !ok {
		return
	}
	if err := apply(user, id); err != nil {
		h.renderFailure(w, r, err)
		return
	}
	h.flash(r, "success", message)
	http.Redirect(w, r, "/articles/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (articleForm, map[string]string, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return articleForm{}, nil, false
	}
	publisherID, _ := strconv.ParseInt(r.PostFormValue("publisher_id"), 10, 64)
	form := articleForm{
		Title:       r.PostFormValue("title"),
		Body:        r.PostFormValue("body"),
		CoverURL:    r.PostFormValue("cover_url"),
		PublisherID: publisherID,
	}
	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fieldErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return form, fieldErrors, true
}

func (h *Handler) articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderNotFound(w, r)
		return 0, false
	}
	return id, true
}

// renderFailure shapes refusals for the HTML surface: unauthenticated
// callers go to the login form, concealed denials and missing rows look
// identical, and everything else renders the forbidden page with the
// denial's status.
func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		h.renderNotFound(w, r)
		return
	}
	if denial, ok := editorial.AsDenial(err); ok {
		switch {
		case denial.RequiresLogin():
			h.flash(r, "info", "Please sign in to continue")
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		case denial.Conceal():
			h.renderNotFound(w, r)
		default:
			h.renderPage(w, r, "pages/forbidden.html", "Not allowed", map[string]any{
				"Reason": string(denial.Reason),
			}, denial.StatusCode())
		}
		return
	}
	if errors.Is(err, editorial.ErrIllegalTransition) {
		h.renderPage(w, r, "pages/forbidden.html", "Not allowed", map[string]any{
			"Reason": "illegal_transition",
		}, http.StatusConflict)
		return
	}
	h.logger.Error("article handler", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "pages/not_found.html", "Not found", nil, http.StatusNotFound)
}

func (h *Handler) flash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
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
