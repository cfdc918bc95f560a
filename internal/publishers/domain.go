package publishers

import (
	"errors"
	"time"

	"github.com/newsdesk/newsdesk/internal/identity"
)

// Publisher is an outlet articles are filed under.
type Publisher struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Staffer is a newsroom user seen through the publisher directory: an
// affiliated editor or journalist, or the target of an author
// subscription.
type Staffer struct {
	UserID int64
	Name   string
	Role   identity.Role
}

var (
	// ErrNotFound indicates the subscription target does not exist.
	ErrNotFound = errors.New("publishers: not found")
	// ErrDuplicateName indicates a publisher with the same name exists.
	ErrDuplicateName = errors.New("publishers: duplicate name")
	// ErrSubscriberRole indicates the actor cannot hold subscriptions.
	ErrSubscriberRole = errors.New("publishers: only readers subscribe")
	// ErrNotJournalist indicates an author subscription aimed at a user
	// who does not hold the Journalist role.
	ErrNotJournalist = errors.New("publishers: target is not a journalist")
)
