package service

import (
	"context"
	"time"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/middleware/metrics"
)

type PostService interface {
	Reply(ctx context.Context, user *domain.User, thread domain.ThreadId, draft domain.PostDraft) (*PostResult, error)
	Edit(ctx context.Context, user *domain.User, thread domain.ThreadId, id domain.PostId, draft domain.PostDraft) (*PostResult, error)
	GetOwn(ctx context.Context, user *domain.User, thread domain.ThreadId, id domain.PostId) (*domain.Post, error)
	Delete(ctx context.Context, user *domain.User, thread domain.ThreadId, id domain.PostId, confirmed bool) (*DeleteResult, error)
	ReplyTarget(ctx context.Context, user *domain.User, thread domain.ThreadId) (*domain.Thread, error)
}

// PostResult is the outcome of a reply or edit. Preview holds the rendered
// body when nothing was persisted.
type PostResult struct {
	Post      *domain.Post
	Thread    *domain.Thread
	Preview   string
	Persisted bool
}

// DeleteResult carries the post to confirm when Deleted is false.
type DeleteResult struct {
	Post    *domain.Post
	Deleted bool
}

type Post struct {
	storage  PostStorage
	forums   ForumLookup
	renderer Renderer
	notifier ReplyNotifier
	cfg      *config.Public
}

type PostStorage interface {
	GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error)
	CreatePost(ctx context.Context, data domain.PostCreationData) (*domain.Post, error)
	GetPost(ctx context.Context, thread domain.ThreadId, id domain.PostId) (*domain.Post, error)
	UpdatePostBody(ctx context.Context, thread domain.ThreadId, id domain.PostId, body domain.PostBody) error
	DeletePost(ctx context.Context, thread domain.ThreadId, id domain.PostId) error
}

type Renderer interface {
	Render(body string) string
}

type ReplyNotifier interface {
	NotifyReply(thread domain.ThreadMetadata, post *domain.Post)
}

func NewPost(storage PostStorage, forums ForumLookup, renderer Renderer, notifier ReplyNotifier, cfg *config.Public) *Post {
	return &Post{storage: storage, forums: forums, renderer: renderer, notifier: notifier, cfg: cfg}
}

// ReplyTarget loads a thread the user is about to reply to. Closed threads
// are a Conflict, forums outside the user's groups are Forbidden.
func (p *Post) ReplyTarget(ctx context.Context, user *domain.User, id domain.ThreadId) (*domain.Thread, error) {
	meta, err := p.storage.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta.IsClosed {
		return nil, internal_errors.Conflict("Thread is closed")
	}
	forum, ok, err := threadForum(ctx, p.forums, user, meta.ForumId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal_errors.Forbidden("You can't post in this forum")
	}
	return &domain.Thread{ThreadMetadata: meta, Forum: forum}, nil
}

// Reply validates the draft and either previews it or stores it. A stored
// reply reconciles the author's subscription and notifies subscribers.
func (p *Post) Reply(ctx context.Context, user *domain.User, threadId domain.ThreadId, draft domain.PostDraft) (*PostResult, error) {
	thread, err := p.ReplyTarget(ctx, user, threadId)
	if err != nil {
		return nil, err
	}

	verr := &internal_errors.ValidationError{}
	validateBody(verr, p.cfg, draft.Body)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if draft.Preview {
		post := &domain.Post{ThreadId: threadId, Author: *user, Body: draft.Body, CreatedAt: time.Now()}
		return &PostResult{Post: post, Thread: thread, Preview: p.renderer.Render(draft.Body)}, nil
	}

	post, err := p.storage.CreatePost(ctx, domain.PostCreationData{
		Thread:    threadId,
		Author:    *user,
		Body:      draft.Body,
		Subscribe: draft.Subscribe,
	})
	if err != nil {
		return nil, err
	}
	metrics.PostsCreatedTotal.WithLabelValues("reply").Inc()
	logger.Log.Info("reply created", "thread_id", threadId, "post_id", post.Id, "user_id", user.Id)

	p.notifier.NotifyReply(thread.ThreadMetadata, post)
	return &PostResult{Post: post, Thread: thread, Persisted: true}, nil
}

// GetOwn returns a post only to its author. Anyone else gets NotFound.
func (p *Post) GetOwn(ctx context.Context, user *domain.User, threadId domain.ThreadId, id domain.PostId) (*domain.Post, error) {
	post, err := p.storage.GetPost(ctx, threadId, id)
	if err != nil {
		return nil, err
	}
	if user == nil || post.Author.Id != user.Id {
		return nil, internal_errors.NotFound("Post not found")
	}
	return post, nil
}

// ownOnOpenThread is GetOwn plus the thread, refusing closed threads.
func (p *Post) ownOnOpenThread(ctx context.Context, user *domain.User, threadId domain.ThreadId, id domain.PostId) (*domain.Post, domain.ThreadMetadata, error) {
	post, err := p.GetOwn(ctx, user, threadId, id)
	if err != nil {
		return nil, domain.ThreadMetadata{}, err
	}
	meta, err := p.storage.GetThread(ctx, threadId)
	if err != nil {
		return nil, domain.ThreadMetadata{}, err
	}
	if meta.IsClosed {
		return nil, domain.ThreadMetadata{}, internal_errors.Conflict("Thread is closed")
	}
	return post, meta, nil
}

func (p *Post) Edit(ctx context.Context, user *domain.User, threadId domain.ThreadId, id domain.PostId, draft domain.PostDraft) (*PostResult, error) {
	post, meta, err := p.ownOnOpenThread(ctx, user, threadId, id)
	if err != nil {
		return nil, err
	}

	verr := &internal_errors.ValidationError{}
	validateBody(verr, p.cfg, draft.Body)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	thread := &domain.Thread{ThreadMetadata: meta}
	edited := *post
	edited.Body = draft.Body
	if draft.Preview {
		return &PostResult{Post: &edited, Thread: thread, Preview: p.renderer.Render(draft.Body)}, nil
	}

	if err := p.storage.UpdatePostBody(ctx, threadId, id, draft.Body); err != nil {
		return nil, err
	}
	logger.Log.Info("post edited", "thread_id", threadId, "post_id", id, "user_id", user.Id)
	return &PostResult{Post: &edited, Thread: thread, Persisted: true}, nil
}

// Delete removes the post only when confirmed; otherwise it returns the post
// so the caller can ask for confirmation.
func (p *Post) Delete(ctx context.Context, user *domain.User, threadId domain.ThreadId, id domain.PostId, confirmed bool) (*DeleteResult, error) {
	post, _, err := p.ownOnOpenThread(ctx, user, threadId, id)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return &DeleteResult{Post: post}, nil
	}
	if err := p.storage.DeletePost(ctx, threadId, id); err != nil {
		return nil, err
	}
	logger.Log.Info("post deleted", "thread_id", threadId, "post_id", id, "user_id", user.Id)
	return &DeleteResult{Post: post, Deleted: true}, nil
}
