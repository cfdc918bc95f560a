package articles

import (
	"context"
	"time"

	"github.com/newsdesk/newsdesk/internal/editorial"
)

// ListQuery narrows listings.
type ListQuery struct {
	Scope    editorial.Scope
	ViewerID int64
	Page     int
	PerPage  int
}

// RepositoryPort describes the read side used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetArticle(ctx context.Context, id int64) (*Article, error)
	ListArticles(ctx context.Context, q ListQuery) ([]Article, int, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]Article, error)
	ListSubscribed(ctx context.Context, readerID int64) ([]Article, error)
	ListByStatus(ctx context.Context, status editorial.Status) ([]Article, error)
}

// TxRepository describes writes that must share a transaction with the
// state read they were evaluated against.
type TxRepository interface {
	GetArticleForUpdate(ctx context.Context, id int64) (*Article, error)
	InsertArticle(ctx context.Context, a Article) (int64, error)
	UpdateArticle(ctx context.Context, a Article) error
	UpdateStatus(ctx context.Context, id int64, status editorial.Status, approvedAt *time.Time) error
	DeleteArticle(ctx context.Context, id int64) error
}
