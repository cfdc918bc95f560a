package publishers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for publishers and
// subscriptions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const publisherColumns = `id, name, slug, description, created_at, updated_at`

func scanPublisher(row pgx.Row) (*Publisher, error) {
	var p Publisher
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPublishers returns every publisher ordered by name.
func (r *Repository) ListPublishers(ctx context.Context) ([]Publisher, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+publisherColumns+` FROM publishers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Publisher
	for rows.Next() {
		p, err := scanPublisher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPublisher fetches one publisher by ID.
func (r *Repository) GetPublisher(ctx context.Context, id int64) (*Publisher, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+publisherColumns+` FROM publishers WHERE id = $1`, id)
	return scanPublisher(row)
}

// GetBySlug fetches one publisher by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Publisher, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+publisherColumns+` FROM publishers WHERE slug = $1`, slug)
	return scanPublisher(row)
}

// CreatePublisher inserts a publisher and returns its ID.
func (r *Repository) CreatePublisher(ctx context.Context, p Publisher) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO publishers (name, slug, description, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`, p.Name, p.Slug, p.Description).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateName
		}
		return 0, err
	}
	return id, nil
}

// GetJournalist resolves an active user for author-subscription
// validation. The role check itself lives in the service.
func (r *Repository) GetJournalist(ctx context.Context, userID int64) (*Staffer, error) {
	var s Staffer
	err := r.pool.QueryRow(ctx, `SELECT id, name, role FROM users WHERE id = $1 AND is_active`, userID).
		Scan(&s.UserID, &s.Name, &s.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListStaff returns publisher affiliations keyed by publisher ID.
func (r *Repository) ListStaff(ctx context.Context) (map[int64][]Staffer, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.publisher_id, u.id, u.name, u.role
FROM publisher_staff s
JOIN users u ON u.id = s.user_id
WHERE u.is_active
ORDER BY u.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64][]Staffer)
	for rows.Next() {
		var publisherID int64
		var s Staffer
		if err := rows.Scan(&publisherID, &s.UserID, &s.Name, &s.Role); err != nil {
			return nil, err
		}
		out[publisherID] = append(out[publisherID], s)
	}
	return out, rows.Err()
}

// AuthorEmail returns the active author's address for the approval
// notification fan-out.
func (r *Repository) AuthorEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1 AND is_active`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return email, nil
}

// SubscribePublisher records a reader's subscription, idempotently.
func (r *Repository) SubscribePublisher(ctx context.Context, readerID, publisherID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO publisher_subscriptions (reader_id, publisher_id)
VALUES ($1, $2) ON CONFLICT DO NOTHING`, readerID, publisherID)
	return err
}

// UnsubscribePublisher removes a reader's subscription.
func (r *Repository) UnsubscribePublisher(ctx context.Context, readerID, publisherID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM publisher_subscriptions WHERE reader_id = $1 AND publisher_id = $2`,
		readerID, publisherID)
	return err
}

// SubscribeJournalist records a reader's subscription to an author.
func (r *Repository) SubscribeJournalist(ctx context.Context, readerID, journalistID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO journalist_subscriptions (reader_id, journalist_id)
VALUES ($1, $2) ON CONFLICT DO NOTHING`, readerID, journalistID)
	return err
}

// UnsubscribeJournalist removes a reader's subscription to an author.
func (r *Repository) UnsubscribeJournalist(ctx context.Context, readerID, journalistID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM journalist_subscriptions WHERE reader_id = $1 AND journalist_id = $2`,
		readerID, journalistID)
	return err
}

// SubscribedPublisherIDs returns the publishers the reader follows.
func (r *Repository) SubscribedPublisherIDs(ctx context.Context, readerID int64) ([]int64, error) {
	return r.collectIDs(ctx, `SELECT publisher_id FROM publisher_subscriptions WHERE reader_id = $1`, readerID)
}

// SubscribedJournalistIDs returns the journalists the reader follows.
func (r *Repository) SubscribedJournalistIDs(ctx context.Context, readerID int64) ([]int64, error) {
	return r.collectIDs(ctx, `SELECT journalist_id FROM journalist_subscriptions WHERE reader_id = $1`, readerID)
}

// PublisherSubscriberEmails returns active subscriber addresses for a
// publisher. Used by the approval notification fan-out.
func (r *Repository) PublisherSubscriberEmails(ctx context.Context, publisherID int64) ([]string, error) {
	return r.collectEmails(ctx, `SELECT u.email FROM publisher_subscriptions s
JOIN users u ON u.id = s.reader_id
WHERE s.publisher_id = $1 AND u.is_active`, publisherID)
}

// JournalistSubscriberEmails returns active subscriber addresses for an
// author.
func (r *Repository) JournalistSubscriberEmails(ctx context.Context, journalistID int64) ([]string, error) {
	return r.collectEmails(ctx, `SELECT u.email FROM journalist_subscriptions s
JOIN users u ON u.id = s.reader_id
WHERE s.journalist_id = $1 AND u.is_active`, journalistID)
}

func (r *Repository) collectIDs(ctx context.Context, query string, arg any) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) collectEmails(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
