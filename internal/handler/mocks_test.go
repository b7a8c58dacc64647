package handler

import (
	"context"

	"github.com/itchan-dev/forum/internal/domain"
	"github.com/itchan-dev/forum/internal/service"
)

type MockForumService struct {
	MockList    func(user *domain.User) ([]*domain.Forum, error)
	MockResolve func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error)
	MockThreads func(forum *domain.Forum, page int) (domain.Page[domain.ThreadMetadata], error)
}

func (m *MockForumService) Create(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error) {
	return 0, nil
}

func (m *MockForumService) List(ctx context.Context, user *domain.User) ([]*domain.Forum, error) {
	if m.MockList != nil {
		return m.MockList(user)
	}
	return nil, nil
}

func (m *MockForumService) Visible(ctx context.Context, user *domain.User) ([]*domain.Forum, error) {
	return nil, nil
}

func (m *MockForumService) Resolve(ctx context.Context, user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
	if m.MockResolve != nil {
		return m.MockResolve(user, path)
	}
	return &domain.Forum{Id: 1, Slug: path[len(path)-1], Path: path, Title: "Forum"}, nil
}

func (m *MockForumService) Get(ctx context.Context, user *domain.User, id domain.ForumId) (*domain.Forum, error) {
	return nil, nil
}

func (m *MockForumService) Lookup(ctx context.Context, id domain.ForumId) (*domain.Forum, error) {
	return nil, nil
}

func (m *MockForumService) Threads(ctx context.Context, forum *domain.Forum, page int) (domain.Page[domain.ThreadMetadata], error) {
	if m.MockThreads != nil {
		return m.MockThreads(forum, page)
	}
	return domain.Page[domain.ThreadMetadata]{Number: page, PerPage: 20}, nil
}

type MockThreadService struct {
	MockCreate       func(forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error)
	MockView         func(user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error)
	MockGet          func(user *domain.User, id domain.ThreadId) (*domain.Thread, error)
	MockToggleSticky func(id domain.ThreadId) (bool, error)
	MockToggleClosed func(id domain.ThreadId) (bool, error)
}

func (m *MockThreadService) Create(ctx context.Context, forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(forum, data)
	}
	return 1, nil
}

func (m *MockThreadService) View(ctx context.Context, user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error) {
	if m.MockView != nil {
		return m.MockView(user, id, page)
	}
	return nil, nil
}

func (m *MockThreadService) Get(ctx context.Context, user *domain.User, id domain.ThreadId) (*domain.Thread, error) {
	if m.MockGet != nil {
		return m.MockGet(user, id)
	}
	return testThread(id), nil
}

func (m *MockThreadService) ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error) {
	if m.MockToggleSticky != nil {
		return m.MockToggleSticky(id)
	}
	return true, nil
}

func (m *MockThreadService) ToggleClosed(ctx context.Context, id domain.ThreadId) (bool, error) {
	if m.MockToggleClosed != nil {
		return m.MockToggleClosed(id)
	}
	return true, nil
}

func (m *MockThreadService) SetSticky(ctx context.Context, id domain.ThreadId, sticky bool) error {
	return nil
}

func (m *MockThreadService) SetClosed(ctx context.Context, id domain.ThreadId, closed bool) error {
	return nil
}

type MockPostService struct {
	MockReply       func(user *domain.User, thread domain.ThreadId, draft domain.PostDraft) (*service.PostResult, error)
	MockEdit        func(user *domain.User, thread domain.ThreadId, id domain.PostId, draft domain.PostDraft) (*service.PostResult, error)
	MockGetOwn      func(user *domain.User, thread domain.ThreadId, id domain.PostId) (*domain.Post, error)
	MockDelete      func(user *domain.User, thread domain.ThreadId, id domain.PostId, confirmed bool) (*service.DeleteResult, error)
	MockReplyTarget func(user *domain.User, thread domain.ThreadId) (*domain.Thread, error)
}

func (m *MockPostService) Reply(ctx context.Context, user *domain.User, thread domain.ThreadId, draft domain.PostDraft) (*service.PostResult, error) {
	if m.MockReply != nil {
		return m.MockReply(user, thread, draft)
	}
	return nil, nil
}

func (m *MockPostService) Edit(ctx context.Context, user *domain.User, thread domain.ThreadId, id domain.PostId, draft domain.PostDraft) (*service.PostResult, error) {
	if m.MockEdit != nil {
		return m.MockEdit(user, thread, id, draft)
	}
	return nil, nil
}

func (m *MockPostService) GetOwn(ctx context.Context, user *domain.User, thread domain.ThreadId, id domain.PostId) (*domain.Post, error) {
	if m.MockGetOwn != nil {
		return m.MockGetOwn(user, thread, id)
	}
	return &domain.Post{Id: id, ThreadId: thread, Author: *user, Body: "original"}, nil
}

func (m *MockPostService) Delete(ctx context.Context, user *domain.User, thread domain.ThreadId, id domain.PostId, confirmed bool) (*service.DeleteResult, error) {
	if m.MockDelete != nil {
		return m.MockDelete(user, thread, id, confirmed)
	}
	return nil, nil
}

func (m *MockPostService) ReplyTarget(ctx context.Context, user *domain.User, thread domain.ThreadId) (*domain.Thread, error) {
	if m.MockReplyTarget != nil {
		return m.MockReplyTarget(user, thread)
	}
	return testThread(thread), nil
}

type MockSubscriptionService struct {
	MockList func(user *domain.User) ([]domain.Subscription, error)
	MockKeep func(user *domain.User, keep []domain.ThreadId) error
}

func (m *MockSubscriptionService) List(ctx context.Context, user *domain.User) ([]domain.Subscription, error) {
	if m.MockList != nil {
		return m.MockList(user)
	}
	return nil, nil
}

func (m *MockSubscriptionService) Keep(ctx context.Context, user *domain.User, keep []domain.ThreadId) error {
	if m.MockKeep != nil {
		return m.MockKeep(user, keep)
	}
	return nil
}

type MockAuthService struct {
	MockLogin func(username domain.Username, password domain.Password) (string, error)
}

func (m *MockAuthService) Login(ctx context.Context, username domain.Username, password domain.Password) (string, error) {
	if m.MockLogin != nil {
		return m.MockLogin(username, password)
	}
	return "token", nil
}

func (m *MockAuthService) CreateUser(ctx context.Context, data service.UserData) (domain.UserId, error) {
	return 0, nil
}

func (m *MockAuthService) AddGroup(ctx context.Context, username domain.Username, group domain.GroupName) error {
	return nil
}

func (m *MockAuthService) RemoveGroup(ctx context.Context, username domain.Username, group domain.GroupName) error {
	return nil
}

type MockSyndicationService struct {
	MockRecentThreads func(user *domain.User, forum *domain.Forum) ([]domain.ThreadMetadata, error)
	MockRecentPosts   func(user *domain.User, thread domain.ThreadId) (*domain.Thread, []*domain.Post, error)
	MockPublicForums  func() ([]*domain.Forum, error)
	MockPublicThreads func() ([]domain.ThreadMetadata, error)
	MockPublicPosts   func() ([]domain.PostListing, error)
}

func (m *MockSyndicationService) RecentThreads(ctx context.Context, user *domain.User, forum *domain.Forum) ([]domain.ThreadMetadata, error) {
	if m.MockRecentThreads != nil {
		return m.MockRecentThreads(user, forum)
	}
	return nil, nil
}

func (m *MockSyndicationService) RecentPosts(ctx context.Context, user *domain.User, thread domain.ThreadId) (*domain.Thread, []*domain.Post, error) {
	if m.MockRecentPosts != nil {
		return m.MockRecentPosts(user, thread)
	}
	return testThread(thread), nil, nil
}

func (m *MockSyndicationService) PublicForums(ctx context.Context) ([]*domain.Forum, error) {
	if m.MockPublicForums != nil {
		return m.MockPublicForums()
	}
	return nil, nil
}

func (m *MockSyndicationService) PublicThreads(ctx context.Context) ([]domain.ThreadMetadata, error) {
	if m.MockPublicThreads != nil {
		return m.MockPublicThreads()
	}
	return nil, nil
}

func (m *MockSyndicationService) PublicPosts(ctx context.Context) ([]domain.PostListing, error) {
	if m.MockPublicPosts != nil {
		return m.MockPublicPosts()
	}
	return nil, nil
}
