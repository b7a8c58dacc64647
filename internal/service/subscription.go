package service

import (
	"context"

	"github.com/itchan-dev/forum/internal/domain"
	"github.com/itchan-dev/forum/internal/logger"
)

type SubscriptionService interface {
	List(ctx context.Context, user *domain.User) ([]domain.Subscription, error)
	Keep(ctx context.Context, user *domain.User, keep []domain.ThreadId) error
}

type Subscription struct {
	storage SubscriptionStorage
}

type SubscriptionStorage interface {
	ListSubscriptions(ctx context.Context, author domain.UserId) ([]domain.Subscription, error)
	KeepSubscriptions(ctx context.Context, author domain.UserId, keep []domain.ThreadId) error
}

func NewSubscription(storage SubscriptionStorage) *Subscription {
	return &Subscription{storage: storage}
}

func (s *Subscription) List(ctx context.Context, user *domain.User) ([]domain.Subscription, error) {
	return s.storage.ListSubscriptions(ctx, user.Id)
}

// Keep removes every subscription of user whose thread is not listed in keep.
// Ids the user isn't subscribed to are ignored.
func (s *Subscription) Keep(ctx context.Context, user *domain.User, keep []domain.ThreadId) error {
	if err := s.storage.KeepSubscriptions(ctx, user.Id, keep); err != nil {
		return err
	}
	logger.Log.Debug("subscriptions updated", "user_id", user.Id, "kept", len(keep))
	return nil
}
