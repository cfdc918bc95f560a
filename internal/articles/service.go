package articles

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/newsdesk/newsdesk/internal/editorial"
	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/shared"
)

// AuditPort records editorial actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ApprovedEvent describes a just-approved article for notification
// fan-out.
type ApprovedEvent struct {
	ArticleID   int64
	Title       string
	Preview     string
	AuthorID    int64
	PublisherID int64
	Publisher   string
	ApprovedAt  time.Time
}

// NotifierPort enqueues post-approval side effects. Failures must not
// roll back the approval itself.
type NotifierPort interface {
	ArticleApproved(ctx context.Context, event ApprovedEvent) error
}

// Service orchestrates the article lifecycle. Every protected operation
// passes through the editorial gateway, and transition decisions are
// re-evaluated against the row locked in the same transaction that
// applies them.
type Service struct {
	repo     RepositoryPort
	gateway  *editorial.Gateway
	audit    AuditPort
	notifier NotifierPort
	logger   *slog.Logger
}

// NewService constructs the article service.
func NewService(repo RepositoryPort, gateway *editorial.Gateway, audit AuditPort, notifier NotifierPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, audit: audit, notifier: notifier, logger: logger}
}

// CreateArticleInput describes creation payload.
type CreateArticleInput struct {
	Title       string
	Body        string
	CoverURL    string
	PublisherID int64
}

// UpdateArticleInput describes mutable fields.
type UpdateArticleInput struct {
	Title       string
	Body        string
	CoverURL    string
	PublisherID int64
}

// Create persists a new draft owned by the acting identity.
func (s *Service) Create(ctx context.Context, actor *identity.User, input CreateArticleInput) (*Article, error) {
	if err := s.gateway.Enforce(actor, editorial.ActionCreate, nil); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Body) == "" || input.PublisherID == 0 {
		return nil, ErrValidation
	}
	article := Article{
		Title:       title,
		Slug:        shared.Slugify(title),
		Body:        input.Body,
		CoverURL:    strings.TrimSpace(input.CoverURL),
		PublisherID: input.PublisherID,
		AuthorID:    actor.ID,
		Status:      editorial.StatusDraft,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertArticle(ctx, article)
		if err != nil {
			return err
		}
		article.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "ARTICLE_CREATE", article.ID, map[string]any{"title": article.Title})
	return &article, nil
}

// AllowCreate reports whether the actor may author articles. Used by
// the page surface to gate the compose form before anything is posted.
func (s *Service) AllowCreate(actor *identity.User) error {
	return s.gateway.Enforce(actor, editorial.ActionCreate, nil)
}

// ForEdit loads an article for the edit form, applying the same
// object-level check the update itself will re-run under lock.
func (s *Service) ForEdit(ctx context.Context, actor *identity.User, id int64) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Enforce(actor, editorial.ActionUpdate, article.Resource()); err != nil {
		return nil, err
	}
	return article, nil
}

// Get returns one article after a detail-read check.
func (s *Service) Get(ctx context.Context, actor *identity.User, id int64) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Enforce(actor, editorial.ActionRead, article.Resource()); err != nil {
		return nil, err
	}
	return article, nil
}

// List returns the articles visible to the caller. Unauthenticated
// callers only ever see approved content.
func (s *Service) List(ctx context.Context, actor *identity.User, page, perPage int) ([]Article, shared.Pagination, error) {
	if err := s.gateway.Enforce(actor, editorial.ActionList, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	q := ListQuery{Scope: editorial.ListScope(actor), Page: page, PerPage: perPage}
	if actor != nil {
		q.ViewerID = actor.ID
	}
	items, total, err := s.repo.ListArticles(ctx, q)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Mine returns the caller's own articles. Non-journalists get an empty
// listing rather than an error, matching the personal-feed semantics.
func (s *Service) Mine(ctx context.Context, actor *identity.User) ([]Article, error) {
	if err := s.gateway.Enforce(actor, editorial.ActionRead, &editorial.Resource{OwnerID: actorID(actor)}); err != nil {
		return nil, err
	}
	if !actor.IsJournalist() && !actor.IsAdmin() {
		return nil, nil
	}
	return s.repo.ListByAuthor(ctx, actor.ID)
}

// Subscribed returns approved articles from the reader's subscriptions.
func (s *Service) Subscribed(ctx context.Context, actor *identity.User) ([]Article, error) {
	if err := s.gateway.Enforce(actor, editorial.ActionRead, &editorial.Resource{OwnerID: actorID(actor)}); err != nil {
		return nil, err
	}
	if !actor.IsReader() && !actor.IsAdmin() {
		return nil, nil
	}
	return s.repo.ListSubscribed(ctx, actor.ID)
}

// ReviewQueue lists pending articles for editors, oldest first.
func (s *Service) ReviewQueue(ctx context.Context, actor *identity.User) ([]Article, error) {
	if err := s.gateway.Enforce(actor, editorial.ActionApprove, &editorial.Resource{Status: editorial.StatusPending}); err != nil {
		return nil, err
	}
	return s.repo.ListByStatus(ctx, editorial.StatusPending)
}

// Dashboard aggregates pending and draft work.
type Dashboard struct {
	Pending []Article
	Drafts  []Article
}

// DashboardData returns the editorial dashboard listing.
func (s *Service) DashboardData(ctx context.Context, actor *identity.User) (*Dashboard, error) {
	if err := s.gateway.Enforce(actor, editorial.ActionApprove, &editorial.Resource{Status: editorial.StatusPending}); err != nil {
		return nil, err
	}
	pending, err := s.repo.ListByStatus(ctx, editorial.StatusPending)
	if err != nil {
		return nil, err
	}
	drafts, err := s.repo.ListByStatus(ctx, editorial.StatusDraft)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Pending: pending, Drafts: drafts}, nil
}

// Update rewrites mutable fields after an object-level check against the
// locked row.
func (s *Service) Update(ctx context.Context, actor *identity.User, id int64, input UpdateArticleInput) (*Article, error) {
	var updated *Article
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		article, err := tx.GetArticleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gateway.Enforce(actor, editorial.ActionUpdate, article.Resource()); err != nil {
			return err
		}
		if title := strings.TrimSpace(input.Title); title != "" {
			article.Title = title
			article.Slug = shared.Slugify(title)
		}
		if strings.TrimSpace(input.Body) != "" {
			article.Body = input.Body
		}
		article.CoverURL = strings.TrimSpace(input.CoverURL)
		if input.PublisherID != 0 {
			article.PublisherID = input.PublisherID
		}
		if err := tx.UpdateArticle(ctx, *article); err != nil {
			return err
		}
		updated = article
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "ARTICLE_UPDATE", id, nil)
	return updated, nil
}

// Delete removes an article after an object-level check.
func (s *Service) Delete(ctx context.Context, actor *identity.User, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		article, err := tx.GetArticleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gateway.Enforce(actor, editorial.ActionDelete, article.Resource()); err != nil {
			return err
		}
		return tx.DeleteArticle(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "ARTICLE_DELETE", id, nil)
	return nil
}

// Submit moves the author's draft into the review queue.
func (s *Service) Submit(ctx context.Context, actor *identity.User, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		article, err := tx.GetArticleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gateway.Enforce(actor, editorial.ActionSubmit, article.Resource()); err != nil {
			return err
		}
		if err := editorial.Transition(article.Status, editorial.StatusPending); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, id, editorial.StatusPending, nil)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "ARTICLE_SUBMIT", id, nil)
	return nil
}

// Approve publishes a pending article. The permission decision and the
// transition both run against the row locked here, so two concurrent
// approvals serialize and the loser sees the already-approved state.
func (s *Service) Approve(ctx context.Context, actor *identity.User, id int64) (*Article, error) {
	var approved *Article
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		article, err := tx.GetArticleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gateway.Enforce(actor, editorial.ActionApprove, article.Resource()); err != nil {
			return err
		}
		if err := editorial.Transition(article.Status, editorial.StatusApproved); err != nil {
			return err
		}
		now := time.Now().UTC()
		if article.ApprovedAt == nil {
			article.ApprovedAt = &now
		}
		if err := tx.UpdateStatus(ctx, id, editorial.StatusApproved, article.ApprovedAt); err != nil {
			return err
		}
		article.Status = editorial.StatusApproved
		approved = article
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "ARTICLE_APPROVE", id, map[string]any{"approved_at": approved.ApprovedAt})
	s.notifyApproved(ctx, approved)
	return approved, nil
}

// Reject returns a pending article to draft.
func (s *Service) Reject(ctx context.Context, actor *identity.User, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		article, err := tx.GetArticleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.gateway.Enforce(actor, editorial.ActionReject, article.Resource()); err != nil {
			return err
		}
		if err := editorial.Transition(article.Status, editorial.StatusDraft); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, id, editorial.StatusDraft, nil)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "ARTICLE_REJECT", id, nil)
	return nil
}

func (s *Service) notifyApproved(ctx context.Context, article *Article) {
	if s.notifier == nil || article == nil {
		return
	}
	preview := article.Body
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	event := ApprovedEvent{
		ArticleID:   article.ID,
		Title:       article.Title,
		Preview:     preview,
		AuthorID:    article.AuthorID,
		PublisherID: article.PublisherID,
		Publisher:   article.PublisherName,
	}
	if article.ApprovedAt != nil {
		event.ApprovedAt = *article.ApprovedAt
	}
	if err := s.notifier.ArticleApproved(ctx, event); err != nil && s.logger != nil {
		s.logger.Warn("enqueue approval notification",
			slog.Int64("article_id", article.ID), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actor *identity.User, action string, id int64, meta map[string]any) {
	if s.audit == nil || actor == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "article",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}

func actorID(u *identity.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
