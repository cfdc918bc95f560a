package articles

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/internal/editorial"
	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/shared"
)

type memoryArticleRepo struct {
	articles map[int64]Article
	subs     map[int64][]int64 // readerID -> publisher IDs
	nextID   int64
}

func newMemoryArticleRepo() *memoryArticleRepo {
	return &memoryArticleRepo{
		articles: make(map[int64]Article),
		subs:     make(map[int64][]int64),
		nextID:   1,
	}
}

func (r *memoryArticleRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryArticleTx{repo: r})
}

func (r *memoryArticleRepo) GetArticle(_ context.Context, id int64) (*Article, error) {
	a, ok := r.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryArticleRepo) ListArticles(_ context.Context, q ListQuery) ([]Article, int, error) {
	var out []Article
	for _, a := range r.articles {
		switch q.Scope {
		case editorial.ScopeApprovedOnly:
			if a.Status != editorial.StatusApproved {
				continue
			}
		case editorial.ScopeOwnOrApproved:
			if a.Status != editorial.StatusApproved && a.AuthorID != q.ViewerID {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *memoryArticleRepo) ListByAuthor(_ context.Context, authorID int64) ([]Article, error) {
	var out []Article
	for _, a := range r.articles {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryArticleRepo) ListSubscribed(_ context.Context, readerID int64) ([]Article, error) {
	var out []Article
	for _, a := range r.articles {
		if a.Status != editorial.StatusApproved {
			continue
		}
		for _, pid := range r.subs[readerID] {
			if a.PublisherID == pid {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (r *memoryArticleRepo) ListByStatus(_ context.Context, status editorial.Status) ([]Article, error) {
	var out []Article
	for _, a := range r.articles {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryArticleTx struct {
	repo *memoryArticleRepo
}

func (t *memoryArticleTx) GetArticleForUpdate(ctx context.Context, id int64) (*Article, error) {
	return t.repo.GetArticle(ctx, id)
}

func (t *memoryArticleTx) InsertArticle(_ context.Context, a Article) (int64, error) {
	id := t.repo.nextID
	t.repo.nextID++
	a.ID = id
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	t.repo.articles[id] = a
	return id, nil
}

func (t *memoryArticleTx) UpdateArticle(_ context.Context, a Article) error {
	if _, ok := t.repo.articles[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	t.repo.articles[a.ID] = a
	return nil
}

func (t *memoryArticleTx) UpdateStatus(_ context.Context, id int64, status editorial.Status, approvedAt *time.Time) error {
	a, ok := t.repo.articles[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	if approvedAt != nil {
		a.ApprovedAt = approvedAt
	}
	a.UpdatedAt = time.Now()
	t.repo.articles[id] = a
	return nil
}

func (t *memoryArticleTx) DeleteArticle(_ context.Context, id int64) error {
	if _, ok := t.repo.articles[id]; !ok {
		return ErrNotFound
	}
	delete(t.repo.articles, id)
	return nil
}

type capturedAudit struct {
	entries []shared.AuditLog
}

func (c *capturedAudit) Record(_ context.Context, log shared.AuditLog) error {
	c.entries = append(c.entries, log)
	return nil
}

type capturedNotifier struct {
	events []ApprovedEvent
}

func (c *capturedNotifier) ArticleApproved(_ context.Context, event ApprovedEvent) error {
	c.events = append(c.events, event)
	return nil
}

type fixture struct {
	repo     *memoryArticleRepo
	svc      *Service
	audit    *capturedAudit
	notifier *capturedNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemoryArticleRepo()
	audit := &capturedAudit{}
	notifier := &capturedNotifier{}
	gateway := editorial.NewGateway(slog.Default())
	svc := NewService(repo, gateway, audit, notifier, slog.Default())
	return &fixture{repo: repo, svc: svc, audit: audit, notifier: notifier}
}

func journalist(id int64) *identity.User {
	return &identity.User{ID: id, Role: identity.RoleJournalist, IsActive: true}
}

func editor(id int64) *identity.User {
	return &identity.User{ID: id, Role: identity.RoleEditor, IsActive: true}
}

func reader(id int64) *identity.User {
	return &identity.User{ID: id, Role: identity.RoleReader, IsActive: true}
}

func requireDenied(t *testing.T, err error, status int) *editorial.Denial {
	t.Helper()
	denial, ok := editorial.AsDenial(err)
	require.True(t, ok, "expected denial, got %v", err)
	require.Equal(t, status, denial.StatusCode())
	return denial
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	article, err := f.svc.Create(ctx, journalist(1), CreateArticleInput{
		Title:       "  Harbor Bridge Reopens  ",
		Body:        "After two years of repairs the bridge carries traffic again.",
		PublisherID: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "Harbor Bridge Reopens", article.Title)
	require.Equal(t, "harbor-bridge-reopens", article.Slug)
	require.Equal(t, editorial.StatusDraft, article.Status)
	require.Equal(t, int64(1), article.AuthorID)
	require.Nil(t, article.ApprovedAt)
	require.Len(t, f.audit.entries, 1)
	require.Equal(t, "ARTICLE_CREATE", f.audit.entries[0].Action)
}

func TestCreateDeniedForReader(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), reader(1), CreateArticleInput{
		Title: "T", Body: "B", PublisherID: 1,
	})
	requireDenied(t, err, http.StatusForbidden)
	require.Empty(t, f.repo.articles)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), journalist(1), CreateArticleInput{
		Title: "  ", Body: "body", PublisherID: 1,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Create(context.Background(), journalist(1), CreateArticleInput{
		Title: "Title", Body: "body",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLifecycleDraftToApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	chief := editor(2)

	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Storm Warning", Body: "A front arrives tonight.", PublisherID: 3,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Submit(ctx, author, article.ID))
	stored, err := f.repo.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Equal(t, editorial.StatusPending, stored.Status)

	approved, err := f.svc.Approve(ctx, chief, article.ID)
	require.NoError(t, err)
	require.Equal(t, editorial.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	require.Equal(t, article.ID, event.ArticleID)
	require.Equal(t, "Storm Warning", event.Title)
	require.Equal(t, int64(3), event.PublisherID)
	require.Equal(t, author.ID, event.AuthorID)
	require.False(t, event.ApprovedAt.IsZero())
}

func TestApproveIsNotIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	chief := editor(2)

	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "One", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Submit(ctx, author, article.ID))

	first, err := f.svc.Approve(ctx, chief, article.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, chief, article.ID)
	requireDenied(t, err, http.StatusConflict)

	// The original timestamp survives the failed second attempt.
	stored, err := f.repo.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Equal(t, first.ApprovedAt, stored.ApprovedAt)
	require.Len(t, f.notifier.events, 1)
}

func TestApproveSkippingReviewDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article, err := f.svc.Create(ctx, journalist(1), CreateArticleInput{
		Title: "Draft", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, editor(2), article.ID)
	requireDenied(t, err, http.StatusConflict)
	require.Empty(t, f.notifier.events)
}

func TestJournalistCannotApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Mine", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Submit(ctx, author, article.ID))

	_, err = f.svc.Approve(ctx, author, article.ID)
	requireDenied(t, err, http.StatusForbidden)
}

func TestRejectReturnsToDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Needs Work", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Submit(ctx, author, article.ID))
	require.NoError(t, f.svc.Reject(ctx, editor(2), article.ID))

	stored, err := f.repo.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Equal(t, editorial.StatusDraft, stored.Status)
	require.Nil(t, stored.ApprovedAt)

	// The author can revise and resubmit.
	require.NoError(t, f.svc.Submit(ctx, author, article.ID))
}

func TestUpdateForeignDraftConcealed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article, err := f.svc.Create(ctx, journalist(1), CreateArticleInput{
		Title: "Private Draft", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, journalist(2), article.ID, UpdateArticleInput{Title: "Hijack"})
	denial := requireDenied(t, err, http.StatusNotFound)
	require.True(t, denial.Conceal())

	stored, err := f.repo.GetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Equal(t, "Private Draft", stored.Title)
}

func TestJournalistLocksOutOfApprovedArticle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Published", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Submit(ctx, author, article.ID))
	_, err = f.svc.Approve(ctx, editor(2), article.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, author, article.ID, UpdateArticleInput{Title: "Stealth Edit"})
	requireDenied(t, err, http.StatusConflict)

	err = f.svc.Delete(ctx, author, article.ID)
	requireDenied(t, err, http.StatusConflict)

	// Editors retain write access to published content.
	updated, err := f.svc.Update(ctx, editor(2), article.ID, UpdateArticleInput{Title: "Corrected Headline"})
	require.NoError(t, err)
	require.Equal(t, "Corrected Headline", updated.Title)
	require.Equal(t, "corrected-headline", updated.Slug)
}

func TestSubmitOnlyByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article, err := f.svc.Create(ctx, journalist(1), CreateArticleInput{
		Title: "Draft", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	err = f.svc.Submit(ctx, editor(2), article.ID)
	requireDenied(t, err, http.StatusNotFound)
}

func TestListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	chief := editor(2)

	for _, title := range []string{"First", "Second"} {
		a, err := f.svc.Create(ctx, author, CreateArticleInput{
			Title: title, Body: "Body", PublisherID: 1,
		})
		require.NoError(t, err)
		if title == "First" {
			require.NoError(t, f.svc.Submit(ctx, author, a.ID))
			_, err = f.svc.Approve(ctx, chief, a.ID)
			require.NoError(t, err)
		}
	}

	// Anonymous and reader listings only include approved content.
	items, _, err := f.svc.List(ctx, nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "First", items[0].Title)

	items, _, err = f.svc.List(ctx, reader(9), 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// The author sees their own draft alongside approved pieces.
	items, _, err = f.svc.List(ctx, author, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// A different journalist does not see the foreign draft.
	items, _, err = f.svc.List(ctx, journalist(5), 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Editors see everything.
	items, _, err = f.svc.List(ctx, chief, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestGetRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	article, err := f.svc.Create(ctx, journalist(1), CreateArticleInput{
		Title: "Detail", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, nil, article.ID)
	denial := requireDenied(t, err, http.StatusUnauthorized)
	require.True(t, denial.RequiresLogin())

	got, err := f.svc.Get(ctx, reader(9), article.ID)
	require.NoError(t, err)
	require.Equal(t, article.ID, got.ID)
}

func TestMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	_, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Own", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	mine, err := f.svc.Mine(ctx, author)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	// Readers get an empty personal listing, not an error.
	mine, err = f.svc.Mine(ctx, reader(9))
	require.NoError(t, err)
	require.Empty(t, mine)

	_, err = f.svc.Mine(ctx, nil)
	requireDenied(t, err, http.StatusUnauthorized)
}

func TestSubscribedFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	chief := editor(2)
	sub := reader(9)
	f.repo.subs[sub.ID] = []int64{1}

	a, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Subscribed", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Elsewhere", Body: "Body", PublisherID: 2,
	})
	require.NoError(t, err)
	for _, id := range []int64{a.ID, b.ID} {
		require.NoError(t, f.svc.Submit(ctx, author, id))
		_, err = f.svc.Approve(ctx, chief, id)
		require.NoError(t, err)
	}

	feed, err := f.svc.Subscribed(ctx, sub)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "Subscribed", feed[0].Title)
}

func TestReviewQueueEditorsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Queued", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Submit(ctx, author, article.ID))

	queue, err := f.svc.ReviewQueue(ctx, editor(2))
	require.NoError(t, err)
	require.Len(t, queue, 1)

	_, err = f.svc.ReviewQueue(ctx, author)
	requireDenied(t, err, http.StatusForbidden)

	_, err = f.svc.ReviewQueue(ctx, reader(9))
	requireDenied(t, err, http.StatusForbidden)
}

func TestDeleteOwnDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := journalist(1)
	article, err := f.svc.Create(ctx, author, CreateArticleInput{
		Title: "Discard", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, author, article.ID))
	_, err = f.repo.GetArticle(ctx, article.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdminBypassesEveryGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &identity.User{ID: 99, Role: identity.RoleReader, Superuser: true, IsActive: true}

	article, err := f.svc.Create(ctx, admin, CreateArticleInput{
		Title: "Admin Piece", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)

	// Permissions never stop the admin, but the lifecycle still does:
	// approving a draft skips review and is rejected as a transition.
	_, err = f.svc.Approve(ctx, admin, article.ID)
	require.ErrorIs(t, err, editorial.ErrIllegalTransition)

	require.NoError(t, f.svc.Submit(ctx, admin, article.ID))
	approved, err := f.svc.Approve(ctx, admin, article.ID)
	require.NoError(t, err)
	require.Equal(t, editorial.StatusApproved, approved.Status)

	// And the admin may edit anyone's published work.
	other, err := f.svc.Create(ctx, journalist(1), CreateArticleInput{
		Title: "Foreign", Body: "Body", PublisherID: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, admin, other.ID, UpdateArticleInput{Title: "Edited by Admin"})
	require.NoError(t, err)
}
