// Package jobs runs background work: approval notification fan-out and
// the weekly digest.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskArticleApproved fans out notifications after an approval.
	TaskArticleApproved = "article:approved"
	// TaskWeeklyDigest mails the weekly roundup of approved articles.
	TaskWeeklyDigest = "digest:weekly"
)

// ArticleApprovedPayload carries the facts the fan-out needs. The
// article row is not re-read; the payload is the snapshot taken at
// approval time.
type ArticleApprovedPayload struct {
	ArticleID   int64     `json:"article_id"`
	Title       string    `json:"title"`
	Preview     string    `json:"preview"`
	AuthorID    int64     `json:"author_id"`
	PublisherID int64     `json:"publisher_id"`
	Publisher   string    `json:"publisher"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// NewArticleApprovedTask constructs an Asynq task.
func NewArticleApprovedTask(payload ArticleApprovedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArticleApproved, data), nil
}

// WeeklyDigestPayload scopes the digest window in days.
type WeeklyDigestPayload struct {
	WindowDays int `json:"window_days"`
}

// NewWeeklyDigestTask constructs the digest task.
func NewWeeklyDigestTask(windowDays int) (*asynq.Task, error) {
	data, err := json.Marshal(WeeklyDigestPayload{WindowDays: windowDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWeeklyDigest, data), nil
}
