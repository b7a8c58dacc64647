package service

import (
	"context"
	"strings"

	"github.com/itchan-dev/forum/internal/access"
	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/middleware/metrics"
)

type ThreadService interface {
	Create(ctx context.Context, forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error)
	View(ctx context.Context, user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error)
	Get(ctx context.Context, user *domain.User, id domain.ThreadId) (*domain.Thread, error)
	ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error)
	ToggleClosed(ctx context.Context, id domain.ThreadId) (bool, error)
	SetSticky(ctx context.Context, id domain.ThreadId, sticky bool) error
	SetClosed(ctx context.Context, id domain.ThreadId, closed bool) error
}

type Thread struct {
	storage ThreadStorage
	forums  ForumLookup
	cfg     *config.Public
}

type ThreadStorage interface {
	CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, domain.PostId, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error)
	IncrementThreadViews(ctx context.Context, id domain.ThreadId) error
	ListPosts(ctx context.Context, thread domain.ThreadId, page, perPage int) ([]*domain.Post, int, error)
	IsSubscribed(ctx context.Context, thread domain.ThreadId, author domain.UserId) (bool, error)
	SetThreadSticky(ctx context.Context, id domain.ThreadId, sticky bool) error
	SetThreadClosed(ctx context.Context, id domain.ThreadId, closed bool) error
}

// ForumLookup is the part of ForumService threads and posts depend on.
type ForumLookup interface {
	Lookup(ctx context.Context, id domain.ForumId) (*domain.Forum, error)
}

// threadForum loads the forum a thread lives in and reports whether user may
// access it. Only the forum itself is checked, never its ancestors.
func threadForum(ctx context.Context, forums ForumLookup, user *domain.User, id domain.ForumId) (*domain.Forum, bool, error) {
	forum, err := forums.Lookup(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return forum, access.CanAccess(forum, access.GroupsOf(user)), nil
}

func NewThread(storage ThreadStorage, forums ForumLookup, cfg *config.Public) *Thread {
	return &Thread{storage: storage, forums: forums, cfg: cfg}
}

// Create stores a new thread with its first post. The author must have
// access to the forum.
func (t *Thread) Create(ctx context.Context, forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
	if !access.CanAccess(forum, data.Author.Groups) {
		return 0, internal_errors.Forbidden("You can't post in this forum")
	}

	data.Title = strings.TrimSpace(data.Title)
	verr := &internal_errors.ValidationError{}
	validateTitle(verr, t.cfg, data.Title)
	validateBody(verr, t.cfg, data.Body)
	if err := verr.OrNil(); err != nil {
		return 0, err
	}

	data.Forum = forum.Id
	threadId, _, err := t.storage.CreateThread(ctx, data)
	if err != nil {
		return 0, err
	}
	metrics.PostsCreatedTotal.WithLabelValues("thread").Inc()
	logger.Log.Info("thread created", "thread_id", threadId, "forum_id", forum.Id, "user_id", data.Author.Id)
	return threadId, nil
}

// Get returns thread metadata with its forum, hiding threads of forums user
// can't see. Posts are not loaded.
func (t *Thread) Get(ctx context.Context, user *domain.User, id domain.ThreadId) (*domain.Thread, error) {
	meta, err := t.storage.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	forum, ok, err := threadForum(ctx, t.forums, user, meta.ForumId)
	if err != nil && !internal_errors.IsNotFound(err) {
		return nil, err
	}
	if !ok {
		return nil, internal_errors.NotFound("Thread not found")
	}
	return &domain.Thread{ThreadMetadata: meta, Forum: forum}, nil
}

// View renders one page of a thread. Every call counts as a view.
func (t *Thread) View(ctx context.Context, user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error) {
	thread, err := t.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	page = max(1, page)
	posts, total, err := t.storage.ListPosts(ctx, id, page, t.cfg.PostsPerPage)
	if err != nil {
		return nil, err
	}
	thread.Posts = domain.Page[*domain.Post]{Items: posts, Number: page, PerPage: t.cfg.PostsPerPage, Total: total}
	if page > thread.Posts.TotalPages() {
		return nil, internal_errors.NotFound("Page not found")
	}

	if err := t.storage.IncrementThreadViews(ctx, id); err != nil {
		logger.Log.Warn("failed to count thread view", "thread_id", id, "error", err)
	} else {
		thread.Views++
		metrics.ThreadViewsTotal.Inc()
	}

	view := &domain.ThreadView{Thread: *thread}
	if user != nil {
		view.Subscribed, err = t.storage.IsSubscribed(ctx, id, user.Id)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (t *Thread) SetSticky(ctx context.Context, id domain.ThreadId, sticky bool) error {
	return t.storage.SetThreadSticky(ctx, id, sticky)
}

func (t *Thread) SetClosed(ctx context.Context, id domain.ThreadId, closed bool) error {
	return t.storage.SetThreadClosed(ctx, id, closed)
}

// ToggleSticky flips the sticky flag and returns the new value.
func (t *Thread) ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error) {
	meta, err := t.storage.GetThread(ctx, id)
	if err != nil {
		return false, err
	}
	if err := t.storage.SetThreadSticky(ctx, id, !meta.IsSticky); err != nil {
		return false, err
	}
	logger.Log.Info("thread sticky toggled", "thread_id", id, "sticky", !meta.IsSticky)
	return !meta.IsSticky, nil
}

// ToggleClosed flips the closed flag and returns the new value.
func (t *Thread) ToggleClosed(ctx context.Context, id domain.ThreadId) (bool, error) {
	meta, err := t.storage.GetThread(ctx, id)
	if err != nil {
		return false, err
	}
	if err := t.storage.SetThreadClosed(ctx, id, !meta.IsClosed); err != nil {
		return false, err
	}
	logger.Log.Info("thread closed toggled", "thread_id", id, "closed", !meta.IsClosed)
	return !meta.IsClosed, nil
}
