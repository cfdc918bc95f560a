package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/newsdesk/newsdesk/internal/articles"
	"github.com/newsdesk/newsdesk/internal/identity"
)

// DigestSource lists recently approved articles.
type DigestSource interface {
	ListApprovedSince(ctx context.Context, since time.Time) ([]articles.Article, error)
}

// ReaderDirectory lists accounts by role.
type ReaderDirectory interface {
	ListByRole(ctx context.Context, role identity.Role) ([]identity.User, error)
}

// WeeklyDigestJob mails every active reader the week's approvals.
type WeeklyDigestJob struct {
	source  DigestSource
	readers ReaderDirectory
	mailer  MailSender
	baseURL string
	logger  *slog.Logger
}

// NewWeeklyDigestJob constructs the digest handler.
func NewWeeklyDigestJob(source DigestSource, readers ReaderDirectory, mailer MailSender, baseURL string, logger *slog.Logger) *WeeklyDigestJob {
	return &WeeklyDigestJob{source: source, readers: readers, mailer: mailer, baseURL: baseURL, logger: logger}
}

// Handle processes TaskWeeklyDigest tasks.
func (j *WeeklyDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload WeeklyDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	window := payload.WindowDays
	if window <= 0 {
		window = 7
	}

	items, err := j.source.ListApprovedSince(ctx, time.Now().UTC().AddDate(0, 0, -window))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		j.logger.Info("weekly digest skipped, nothing approved")
		return nil
	}

	users, err := j.readers.ListByRole(ctx, identity.RoleReader)
	if err != nil {
		return err
	}
	recipients := make([]string, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, u.Email)
	}
	if len(recipients) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("This week in the newsroom:\n\n")
	for _, a := range items {
		fmt.Fprintf(&b, "- %s (%s)\n  %s/articles/%d\n", a.Title, a.PublisherName, j.baseURL, a.ID)
	}

	if err := j.mailer.Send(ctx, recipients, "Your weekly digest", b.String()); err != nil {
		return err
	}
	j.logger.Info("weekly digest sent",
		slog.Int("articles", len(items)),
		slog.Int("recipients", len(recipients)))
	return nil
}
