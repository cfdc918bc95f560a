package publishers

import "context"

// RepositoryPort describes persistence used by Service.
type RepositoryPort interface {
	ListPublishers(ctx context.Context) ([]Publisher, error)
	GetPublisher(ctx context.Context, id int64) (*Publisher, error)
	GetBySlug(ctx context.Context, slug string) (*Publisher, error)
	CreatePublisher(ctx context.Context, p Publisher) (int64, error)

	GetJournalist(ctx context.Context, userID int64) (*Staffer, error)
	ListStaff(ctx context.Context) (map[int64][]Staffer, error)

	SubscribePublisher(ctx context.Context, readerID, publisherID int64) error
	UnsubscribePublisher(ctx context.Context, readerID, publisherID int64) error
	SubscribeJournalist(ctx context.Context, readerID, journalistID int64) error
	UnsubscribeJournalist(ctx context.Context, readerID, journalistID int64) error

	SubscribedPublisherIDs(ctx context.Context, readerID int64) ([]int64, error)
	SubscribedJournalistIDs(ctx context.Context, readerID int64) ([]int64, error)

	PublisherSubscriberEmails(ctx context.Context, publisherID int64) ([]string, error)
	JournalistSubscriberEmails(ctx context.Context, journalistID int64) ([]string, error)
}
