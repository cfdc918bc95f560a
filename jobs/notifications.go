package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/newsdesk/newsdesk/internal/publishers"
)

// SubscriberDirectory resolves who should hear about an approval.
type SubscriberDirectory interface {
	GetPublisher(ctx context.Context, id int64) (*publishers.Publisher, error)
	PublisherSubscriberEmails(ctx context.Context, publisherID int64) ([]string, error)
	JournalistSubscriberEmails(ctx context.Context, journalistID int64) ([]string, error)
	AuthorEmail(ctx context.Context, authorID int64) (string, error)
}

// MailSender delivers notification mail.
type MailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SocialPoster publishes the approval announcement.
type SocialPoster interface {
	Enabled() bool
	Post(ctx context.Context, text string) error
}

// NotificationJob fans out a single approval: one mail batch to the
// union of publisher and author subscribers plus the author, one post
// to X.
type NotificationJob struct {
	directory SubscriberDirectory
	mailer    MailSender
	social    SocialPoster
	baseURL   string
	logger    *slog.Logger
}

// NewNotificationJob constructs the fan-out handler.
func NewNotificationJob(directory SubscriberDirectory, mailer MailSender, social SocialPoster, baseURL string, logger *slog.Logger) *NotificationJob {
	return &NotificationJob{directory: directory, mailer: mailer, social: social, baseURL: baseURL, logger: logger}
}

// Handle processes TaskArticleApproved tasks.
func (j *NotificationJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ArticleApprovedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	publisherName := payload.Publisher
	if publisherName == "" && payload.PublisherID != 0 {
		if p, err := j.directory.GetPublisher(ctx, payload.PublisherID); err == nil {
			publisherName = p.Name
		}
	}

	recipients, err := j.recipients(ctx, payload)
	if err != nil {
		return err
	}

	if len(recipients) > 0 && j.mailer != nil {
		subject := fmt.Sprintf("New on %s: %s", publisherName, payload.Title)
		body := fmt.Sprintf("%s\n\n%s\n\nRead it here: %s/articles/%d\n",
			payload.Title, payload.Preview, j.baseURL, payload.ArticleID)
		if err := j.mailer.Send(ctx, recipients, subject, body); err != nil {
			return err
		}
		j.logger.Info("approval mail sent",
			slog.Int64("article_id", payload.ArticleID),
			slog.Int("recipients", len(recipients)))
	}

	if j.social != nil && j.social.Enabled() {
		text := fmt.Sprintf("%s — now on %s %s/articles/%d",
			payload.Title, publisherName, j.baseURL, payload.ArticleID)
		if err := j.social.Post(ctx, text); err != nil {
			// The mail batch already went out; retrying the whole task
			// would double-deliver it. Log and move on.
			j.logger.Warn("post approval to x",
				slog.Int64("article_id", payload.ArticleID), slog.Any("error", err))
		}
	}

	return nil
}

func (j *NotificationJob) recipients(ctx context.Context, payload ArticleApprovedPayload) ([]string, error) {
	byPublisher, err := j.directory.PublisherSubscriberEmails(ctx, payload.PublisherID)
	if err != nil {
		return nil, err
	}
	byAuthor, err := j.directory.JournalistSubscriberEmails(ctx, payload.AuthorID)
	if err != nil {
		return nil, err
	}
	all := append(byPublisher, byAuthor...)

	// The author hears about their own approval even with zero
	// subscribers. A vanished or deactivated account just drops out.
	authorEmail, err := j.directory.AuthorEmail(ctx, payload.AuthorID)
	switch {
	case err == nil && authorEmail != "":
		all = append(all, authorEmail)
	case err != nil && !errors.Is(err, publishers.ErrNotFound):
		return nil, err
	}

	seen := make(map[string]struct{}, len(all))
	var out []string
	for _, email := range all {
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out, nil
}
