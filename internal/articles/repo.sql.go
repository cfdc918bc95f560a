package articles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsdesk/newsdesk/internal/editorial"
	"github.com/newsdesk/newsdesk/internal/platform/db"
	"github.com/newsdesk/newsdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for articles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs fn inside a repeatable-read transaction so the lifecycle
// state a decision was evaluated against cannot change before the write
// lands.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const articleColumns = `a.id, a.title, a.slug, a.body, a.cover_url, a.publisher_id, a.author_id,
a.status, a.created_at, a.updated_at, a.approved_at, p.name, u.name`

const articleJoins = `FROM articles a
JOIN publishers p ON p.id = a.publisher_id
JOIN users u ON u.id = a.author_id`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	var status string
	if err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.CoverURL, &a.PublisherID, &a.AuthorID,
		&status, &a.CreatedAt, &a.UpdatedAt, &a.ApprovedAt, &a.PublisherName, &a.AuthorName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Status = editorial.Status(status)
	return &a, nil
}

func collectArticles(rows pgx.Rows) ([]Article, error) {
	defer rows.Close()
	var out []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetArticle fetches one article with display joins.
func (r *Repository) GetArticle(ctx context.Context, id int64) (*Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` `+articleJoins+` WHERE a.id = $1`, id)
	return scanArticle(row)
}

// ListArticles returns a page of articles visible under the query scope,
// ordered the way the landing page expects: newest approvals first.
func (r *Repository) ListArticles(ctx context.Context, q ListQuery) ([]Article, int, error) {
	where := `WHERE a.status = 'APPROVED'`
	args := []any{}
	switch q.Scope {
	case editorial.ScopeAll:
		where = `WHERE TRUE`
	case editorial.ScopeOwnOrApproved:
		where = `WHERE (a.status = 'APPROVED' OR a.author_id = $1)`
		args = append(args, q.ViewerID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles a `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = shared.DefaultPerPage
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s %s %s
ORDER BY a.approved_at DESC NULLS LAST, a.created_at DESC
LIMIT $%d OFFSET $%d`, articleColumns, articleJoins, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectArticles(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByAuthor returns the author's articles, newest first.
func (r *Repository) ListByAuthor(ctx context.Context, authorID int64) ([]Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` `+articleJoins+`
WHERE a.author_id = $1 ORDER BY a.created_at DESC`, authorID)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// ListSubscribed returns approved articles from publishers or
// journalists the reader subscribes to.
func (r *Repository) ListSubscribed(ctx context.Context, readerID int64) ([]Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` `+articleJoins+`
WHERE a.status = 'APPROVED' AND (
	a.publisher_id IN (SELECT publisher_id FROM publisher_subscriptions WHERE reader_id = $1)
	OR a.author_id IN (SELECT journalist_id FROM journalist_subscriptions WHERE reader_id = $1)
)
ORDER BY a.approved_at DESC NULLS LAST, a.created_at DESC`, readerID)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// ListByStatus returns articles in the given lifecycle state, oldest
// first so the review queue is worked in submission order.
func (r *Repository) ListByStatus(ctx context.Context, status editorial.Status) ([]Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` `+articleJoins+`
WHERE a.status = $1 ORDER BY a.created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// ListApprovedSince returns articles approved on or after the cutoff,
// newest first. Feeds the weekly digest.
func (r *Repository) ListApprovedSince(ctx context.Context, since time.Time) ([]Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` `+articleJoins+`
WHERE a.status = 'APPROVED' AND a.approved_at >= $1
ORDER BY a.approved_at DESC`, since)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// GetArticleForUpdate locks the row for the rest of the transaction.
func (tx *txRepository) GetArticleForUpdate(ctx context.Context, id int64) (*Article, error) {
	var a Article
	var status string
	row := tx.tx.QueryRow(ctx, `SELECT id, title, slug, body, cover_url, publisher_id, author_id,
status, created_at, updated_at, approved_at FROM articles WHERE id = $1 FOR UPDATE`, id)
	if err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.CoverURL, &a.PublisherID, &a.AuthorID,
		&status, &a.CreatedAt, &a.UpdatedAt, &a.ApprovedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Status = editorial.Status(status)
	return &a, nil
}

// InsertArticle persists a new article.
func (tx *txRepository) InsertArticle(ctx context.Context, a Article) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO articles (title, slug, body, cover_url, publisher_id, author_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING id`,
		a.Title, a.Slug, a.Body, a.CoverURL, a.PublisherID, a.AuthorID, string(a.Status)).Scan(&id)
	return id, err
}

// UpdateArticle rewrites mutable fields. Author and status are out of
// scope here; status moves only through UpdateStatus.
func (tx *txRepository) UpdateArticle(ctx context.Context, a Article) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE articles SET title = $2, slug = $3, body = $4, cover_url = $5, publisher_id = $6, updated_at = NOW()
WHERE id = $1`, a.ID, a.Title, a.Slug, a.Body, a.CoverURL, a.PublisherID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus advances the lifecycle state.
func (tx *txRepository) UpdateStatus(ctx context.Context, id int64, status editorial.Status, approvedAt *time.Time) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE articles SET status = $2, approved_at = COALESCE($3, approved_at), updated_at = NOW()
WHERE id = $1`, id, string(status), approvedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteArticle removes the row.
func (tx *txRepository) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := tx.tx.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
