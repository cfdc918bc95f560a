package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/internal/articles"
	"github.com/newsdesk/newsdesk/internal/editorial"
	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/publishers"
)

type fakeDirectory struct {
	publisher   *publishers.Publisher
	byPublisher []string
	byAuthor    []string
	authorEmail string
}

func (d *fakeDirectory) GetPublisher(_ context.Context, id int64) (*publishers.Publisher, error) {
	if d.publisher == nil || d.publisher.ID != id {
		return nil, publishers.ErrNotFound
	}
	return d.publisher, nil
}

func (d *fakeDirectory) PublisherSubscriberEmails(_ context.Context, _ int64) ([]string, error) {
	return d.byPublisher, nil
}

func (d *fakeDirectory) JournalistSubscriberEmails(_ context.Context, _ int64) ([]string, error) {
	return d.byAuthor, nil
}

func (d *fakeDirectory) AuthorEmail(_ context.Context, _ int64) (string, error) {
	if d.authorEmail == "" {
		return "", publishers.ErrNotFound
	}
	return d.authorEmail, nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to []string, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakePoster struct {
	enabled bool
	posts   []string
	err     error
}

func (p *fakePoster) Enabled() bool { return p.enabled }

func (p *fakePoster) Post(_ context.Context, text string) error {
	if p.err != nil {
		return p.err
	}
	p.posts = append(p.posts, text)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func approvedTask(t *testing.T, payload ArticleApprovedPayload) *asynq.Task {
	t.Helper()
	task, err := NewArticleApprovedTask(payload)
	require.NoError(t, err)
	return task
}

func TestNotificationFanOut(t *testing.T) {
	dir := &fakeDirectory{
		publisher:   &publishers.Publisher{ID: 3, Name: "Harbor Gazette"},
		byPublisher: []string{"a@example.com", "b@example.com"},
		byAuthor:    []string{"b@example.com", "c@example.com"},
	}
	mailer := &fakeMailer{}
	poster := &fakePoster{enabled: true}
	job := NewNotificationJob(dir, mailer, poster, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{
		ArticleID:   7,
		Title:       "Storm Warning",
		Preview:     "A front arrives tonight.",
		AuthorID:    1,
		PublisherID: 3,
		Publisher:   "Harbor Gazette",
		ApprovedAt:  time.Now(),
	})
	require.NoError(t, job.Handle(context.Background(), task))

	// Overlapping subscriber lists collapse to one mail per address.
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, mailer.sent[0].to)
	require.Contains(t, mailer.sent[0].subject, "Storm Warning")
	require.Contains(t, mailer.sent[0].body, "https://news.example/articles/7")

	require.Len(t, poster.posts, 1)
	require.Contains(t, poster.posts[0], "Harbor Gazette")
}

func TestNotificationMailsAuthor(t *testing.T) {
	dir := &fakeDirectory{
		byPublisher: []string{"sub@example.com"},
		authorEmail: "jo@example.com",
	}
	mailer := &fakeMailer{}
	job := NewNotificationJob(dir, mailer, &fakePoster{}, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{
		ArticleID: 7, Title: "Storm Warning", AuthorID: 42, PublisherID: 3,
	})
	require.NoError(t, job.Handle(context.Background(), task))

	// The author gets the approval mail even without following anyone.
	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0].to, "jo@example.com")
	require.Contains(t, mailer.sent[0].to, "sub@example.com")
}

func TestNotificationAuthorAlreadySubscribed(t *testing.T) {
	dir := &fakeDirectory{
		byAuthor:    []string{"jo@example.com"},
		authorEmail: "jo@example.com",
	}
	mailer := &fakeMailer{}
	job := NewNotificationJob(dir, mailer, &fakePoster{}, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{ArticleID: 7, Title: "T", AuthorID: 42, PublisherID: 3})
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"jo@example.com"}, mailer.sent[0].to)
}

func TestNotificationResolvesPublisherName(t *testing.T) {
	dir := &fakeDirectory{
		publisher:   &publishers.Publisher{ID: 3, Name: "Harbor Gazette"},
		byPublisher: []string{"a@example.com"},
	}
	mailer := &fakeMailer{}
	job := NewNotificationJob(dir, mailer, &fakePoster{}, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{
		ArticleID: 7, Title: "Untagged", AuthorID: 1, PublisherID: 3,
	})
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0].subject, "Harbor Gazette")
}

func TestNotificationNoRecipientsSkipsMail(t *testing.T) {
	mailer := &fakeMailer{}
	job := NewNotificationJob(&fakeDirectory{}, mailer, &fakePoster{}, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{ArticleID: 7, Title: "Quiet", PublisherID: 1})
	require.NoError(t, job.Handle(context.Background(), task))
	require.Empty(t, mailer.sent)
}

func TestNotificationMailFailureRetries(t *testing.T) {
	dir := &fakeDirectory{byPublisher: []string{"a@example.com"}}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	job := NewNotificationJob(dir, mailer, &fakePoster{}, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{ArticleID: 7, Title: "T", PublisherID: 1})
	require.Error(t, job.Handle(context.Background(), task))
}

func TestNotificationSocialFailureDoesNotRetry(t *testing.T) {
	dir := &fakeDirectory{byPublisher: []string{"a@example.com"}}
	mailer := &fakeMailer{}
	poster := &fakePoster{enabled: true, err: errors.New("x api down")}
	job := NewNotificationJob(dir, mailer, poster, "https://news.example", discardLogger())

	task := approvedTask(t, ArticleApprovedPayload{ArticleID: 7, Title: "T", PublisherID: 1})

	// The mail batch went out; failing the task would double-deliver it.
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
}

func TestNotificationBadPayloadSkipsRetry(t *testing.T) {
	job := NewNotificationJob(&fakeDirectory{}, &fakeMailer{}, &fakePoster{}, "", discardLogger())
	task := asynq.NewTask(TaskArticleApproved, []byte("{not json"))
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

type fakeDigestSource struct {
	items []articles.Article
}

func (s *fakeDigestSource) ListApprovedSince(_ context.Context, _ time.Time) ([]articles.Article, error) {
	return s.items, nil
}

type fakeReaderDirectory struct {
	users []identity.User
}

func (d *fakeReaderDirectory) ListByRole(_ context.Context, role identity.Role) ([]identity.User, error) {
	var out []identity.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func digestTask(t *testing.T, windowDays int) *asynq.Task {
	t.Helper()
	task, err := NewWeeklyDigestTask(windowDays)
	require.NoError(t, err)
	return task
}

func TestWeeklyDigest(t *testing.T) {
	source := &fakeDigestSource{items: []articles.Article{
		{ID: 1, Title: "First", PublisherName: "The Daily Ledger", Status: editorial.StatusApproved},
		{ID: 2, Title: "Second", PublisherName: "Harbor Gazette", Status: editorial.StatusApproved},
	}}
	readers := &fakeReaderDirectory{users: []identity.User{
		{ID: 1, Email: "reader@example.com", Role: identity.RoleReader},
		{ID: 2, Email: "jo@example.com", Role: identity.RoleJournalist},
	}}
	mailer := &fakeMailer{}
	job := NewWeeklyDigestJob(source, readers, mailer, "https://news.example", discardLogger())

	require.NoError(t, job.Handle(context.Background(), digestTask(t, 7)))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"reader@example.com"}, mailer.sent[0].to)
	require.Contains(t, mailer.sent[0].body, "First")
	require.Contains(t, mailer.sent[0].body, "https://news.example/articles/2")
}

func TestWeeklyDigestNothingApproved(t *testing.T) {
	mailer := &fakeMailer{}
	job := NewWeeklyDigestJob(&fakeDigestSource{}, &fakeReaderDirectory{}, mailer, "", discardLogger())
	require.NoError(t, job.Handle(context.Background(), digestTask(t, 7)))
	require.Empty(t, mailer.sent)
}
