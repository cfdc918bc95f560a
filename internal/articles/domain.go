package articles

import (
	"errors"
	"time"

	"github.com/newsdesk/newsdesk/internal/editorial"
)

// Article is a news piece authored by a journalist and reviewed by an
// editor. The author reference is set at creation and never reassigned.
type Article struct {
	ID          int64
	Title       string
	Slug        string
	Body        string
	CoverURL    string
	PublisherID int64
	AuthorID    int64
	Status      editorial.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time

	// Joined display fields, populated on reads.
	PublisherName string
	AuthorName    string
}

// Resource projects the article onto the object-level facts the
// permission evaluator consumes.
func (a *Article) Resource() *editorial.Resource {
	if a == nil {
		return nil
	}
	return &editorial.Resource{OwnerID: a.AuthorID, Status: a.Status}
}

var (
	// ErrNotFound indicates the article does not exist.
	ErrNotFound = errors.New("articles: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("articles: invalid input")
)
