package publishers

import (
	"context"
	"strings"

	"github.com/newsdesk/newsdesk/internal/identity"
	"github.com/newsdesk/newsdesk/internal/shared"
)

// Service wraps publisher and subscription rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns every publisher.
func (s *Service) List(ctx context.Context) ([]Publisher, error) {
	return s.repo.ListPublishers(ctx)
}

// Get resolves a publisher by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Publisher, error) {
	return s.repo.GetPublisher(ctx, id)
}

// Create registers a publisher. Names are slugged for stable URLs.
func (s *Service) Create(ctx context.Context, name, description string) (*Publisher, error) {
	p := Publisher{
		Name:        strings.TrimSpace(name),
		Slug:        shared.Slugify(strings.TrimSpace(name)),
		Description: strings.TrimSpace(description),
	}
	id, err := s.repo.CreatePublisher(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// SubscribePublisher subscribes the reader to a publisher. Subscriptions
// are a reader feature; journalists and editors follow work through the
// review surfaces instead.
func (s *Service) SubscribePublisher(ctx context.Context, actor *identity.User, publisherID int64) error {
	if err := s.requireReader(actor); err != nil {
		return err
	}
	if _, err := s.repo.GetPublisher(ctx, publisherID); err != nil {
		return err
	}
	return s.repo.SubscribePublisher(ctx, actor.ID, publisherID)
}

// UnsubscribePublisher removes the reader's publisher subscription.
func (s *Service) UnsubscribePublisher(ctx context.Context, actor *identity.User, publisherID int64) error {
	if err := s.requireReader(actor); err != nil {
		return err
	}
	return s.repo.UnsubscribePublisher(ctx, actor.ID, publisherID)
}

// SubscribeJournalist subscribes the reader to an author. The target
// must exist and hold the Journalist role; editors and readers are not
// subscribable.
func (s *Service) SubscribeJournalist(ctx context.Context, actor *identity.User, journalistID int64) error {
	if err := s.requireReader(actor); err != nil {
		return err
	}
	target, err := s.repo.GetJournalist(ctx, journalistID)
	if err != nil {
		return err
	}
	if target.Role != identity.RoleJournalist {
		return ErrNotJournalist
	}
	return s.repo.SubscribeJournalist(ctx, actor.ID, journalistID)
}

// UnsubscribeJournalist removes the reader's author subscription.
func (s *Service) UnsubscribeJournalist(ctx context.Context, actor *identity.User, journalistID int64) error {
	if err := s.requireReader(actor); err != nil {
		return err
	}
	return s.repo.UnsubscribeJournalist(ctx, actor.ID, journalistID)
}

// Staff returns affiliated editors and journalists keyed by publisher
// ID, for the directory page and API.
func (s *Service) Staff(ctx context.Context) (map[int64][]Staffer, error) {
	return s.repo.ListStaff(ctx)
}

// Subscriptions returns the reader's followed publisher and journalist
// IDs for rendering toggle state.
func (s *Service) Subscriptions(ctx context.Context, actor *identity.User) (publisherIDs, journalistIDs []int64, err error) {
	if actor == nil {
		return nil, nil, nil
	}
	publisherIDs, err = s.repo.SubscribedPublisherIDs(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	journalistIDs, err = s.repo.SubscribedJournalistIDs(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	return publisherIDs, journalistIDs, nil
}

func (s *Service) requireReader(actor *identity.User) error {
	if actor == nil || (!actor.IsReader() && !actor.IsAdmin()) {
		return ErrSubscriberRole
	}
	return nil
}
