package service

import (
	"context"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

// sitemapLimit is the most URLs one sitemap file may hold.
const sitemapLimit = 50_000

// SyndicationService feeds the RSS/Atom handlers and the sitemap. It never writes.
type SyndicationService interface {
	RecentThreads(ctx context.Context, user *domain.User, forum *domain.Forum) ([]domain.ThreadMetadata, error)
	RecentPosts(ctx context.Context, user *domain.User, thread domain.ThreadId) (*domain.Thread, []*domain.Post, error)
	PublicForums(ctx context.Context) ([]*domain.Forum, error)
	PublicThreads(ctx context.Context) ([]domain.ThreadMetadata, error)
	PublicPosts(ctx context.Context) ([]domain.PostListing, error)
}

type Syndication struct {
	storage SyndicationStorage
	forums  ForumVisibility
	cfg     *config.Public
}

type SyndicationStorage interface {
	GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error)
	RecentThreads(ctx context.Context, forums []domain.ForumId, limit int) ([]domain.ThreadMetadata, error)
	RecentPosts(ctx context.Context, thread domain.ThreadId, limit int) ([]*domain.Post, error)
	PostsInForums(ctx context.Context, forums []domain.ForumId, limit int) ([]domain.PostListing, error)
}

type ForumVisibility interface {
	ForumLookup
	Visible(ctx context.Context, user *domain.User) ([]*domain.Forum, error)
}

func NewSyndication(storage SyndicationStorage, forums ForumVisibility, cfg *config.Public) *Syndication {
	return &Syndication{storage: storage, forums: forums, cfg: cfg}
}

// RecentThreads lists the most recently active threads of forum, or of every
// forum visible to user when forum is nil. The caller resolves forum with the
// same user, so it is already known to be visible.
func (s *Syndication) RecentThreads(ctx context.Context, user *domain.User, forum *domain.Forum) ([]domain.ThreadMetadata, error) {
	if forum != nil {
		return s.storage.RecentThreads(ctx, []domain.ForumId{forum.Id}, s.cfg.FeedItems)
	}
	ids, err := s.visibleIds(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.storage.RecentThreads(ctx, ids, s.cfg.FeedItems)
}

// RecentPosts returns a thread and its newest posts. A thread in a forum user
// can't access is NotFound, exactly as on the thread page.
func (s *Syndication) RecentPosts(ctx context.Context, user *domain.User, id domain.ThreadId) (*domain.Thread, []*domain.Post, error) {
	meta, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	forum, ok, err := threadForum(ctx, s.forums, user, meta.ForumId)
	if err != nil && !internal_errors.IsNotFound(err) {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, internal_errors.NotFound("Thread not found")
	}
	posts, err := s.storage.RecentPosts(ctx, id, s.cfg.FeedItems)
	if err != nil {
		return nil, nil, err
	}
	return &domain.Thread{ThreadMetadata: meta, Forum: forum}, posts, nil
}

func (s *Syndication) PublicForums(ctx context.Context) ([]*domain.Forum, error) {
	return s.forums.Visible(ctx, nil)
}

func (s *Syndication) PublicThreads(ctx context.Context) ([]domain.ThreadMetadata, error) {
	ids, err := s.visibleIds(ctx, nil)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return s.storage.RecentThreads(ctx, ids, sitemapLimit)
}

func (s *Syndication) PublicPosts(ctx context.Context) ([]domain.PostListing, error) {
	ids, err := s.visibleIds(ctx, nil)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return s.storage.PostsInForums(ctx, ids, sitemapLimit)
}

func (s *Syndication) visibleIds(ctx context.Context, user *domain.User) ([]domain.ForumId, error) {
	forums, err := s.forums.Visible(ctx, user)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.ForumId, len(forums))
	for i, f := range forums {
		ids[i] = f.Id
	}
	return ids, nil
}
