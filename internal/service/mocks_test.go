package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	"github.com/itchan-dev/forum/internal/email"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

// --- Mocks ---

type MockForumStorage struct {
	createForumFunc func(data domain.ForumCreationData) (domain.ForumId, error)
	getForumsFunc   func() ([]domain.Forum, error)
	listThreadsFunc func(forum domain.ForumId, page, perPage int) ([]domain.ThreadMetadata, int, error)
}

func (m *MockForumStorage) CreateForum(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error) {
	if m.createForumFunc != nil {
		return m.createForumFunc(data)
	}
	return 1, nil
}

func (m *MockForumStorage) GetForums(ctx context.Context) ([]domain.Forum, error) {
	if m.getForumsFunc != nil {
		return m.getForumsFunc()
	}
	return nil, nil
}

func (m *MockForumStorage) ListThreads(ctx context.Context, forum domain.ForumId, page, perPage int) ([]domain.ThreadMetadata, int, error) {
	if m.listThreadsFunc != nil {
		return m.listThreadsFunc(forum, page, perPage)
	}
	return nil, 0, nil
}

type MockThreadStorage struct {
	createThreadFunc   func(data domain.ThreadCreationData) (domain.ThreadId, domain.PostId, error)
	getThreadFunc      func(id domain.ThreadId) (domain.ThreadMetadata, error)
	incrementViewsFunc func(id domain.ThreadId) error
	listPostsFunc      func(thread domain.ThreadId, page, perPage int) ([]*domain.Post, int, error)
	isSubscribedFunc   func(thread domain.ThreadId, author domain.UserId) (bool, error)
	setStickyFunc      func(id domain.ThreadId, sticky bool) error
	setClosedFunc      func(id domain.ThreadId, closed bool) error

	mu            sync.Mutex
	createCalled  bool
	views         int
	subscribedArg domain.UserId
}

func (m *MockThreadStorage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, domain.PostId, error) {
	m.mu.Lock()
	m.createCalled = true
	m.mu.Unlock()
	if m.createThreadFunc != nil {
		return m.createThreadFunc(data)
	}
	return 1, 1, nil
}

func (m *MockThreadStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error) {
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.ThreadMetadata{Id: id, ForumId: 1, Title: "Welcome", PostCount: 1}, nil
}

func (m *MockThreadStorage) IncrementThreadViews(ctx context.Context, id domain.ThreadId) error {
	m.mu.Lock()
	m.views++
	m.mu.Unlock()
	if m.incrementViewsFunc != nil {
		return m.incrementViewsFunc(id)
	}
	return nil
}

func (m *MockThreadStorage) ListPosts(ctx context.Context, thread domain.ThreadId, page, perPage int) ([]*domain.Post, int, error) {
	if m.listPostsFunc != nil {
		return m.listPostsFunc(thread, page, perPage)
	}
	return []*domain.Post{{Id: 1, ThreadId: thread}}, 1, nil
}

func (m *MockThreadStorage) IsSubscribed(ctx context.Context, thread domain.ThreadId, author domain.UserId) (bool, error) {
	m.mu.Lock()
	m.subscribedArg = author
	m.mu.Unlock()
	if m.isSubscribedFunc != nil {
		return m.isSubscribedFunc(thread, author)
	}
	return false, nil
}

func (m *MockThreadStorage) SetThreadSticky(ctx context.Context, id domain.ThreadId, sticky bool) error {
	if m.setStickyFunc != nil {
		return m.setStickyFunc(id, sticky)
	}
	return nil
}

func (m *MockThreadStorage) SetThreadClosed(ctx context.Context, id domain.ThreadId, closed bool) error {
	if m.setClosedFunc != nil {
		return m.setClosedFunc(id, closed)
	}
	return nil
}

// MockForumLookup serves a fixed set of forums.
type MockForumLookup struct {
	forums map[domain.ForumId]*domain.Forum
}

func newForumLookup(forums ...*domain.Forum) *MockForumLookup {
	m := &MockForumLookup{forums: make(map[domain.ForumId]*domain.Forum)}
	for _, f := range forums {
		m.forums[f.Id] = f
	}
	return m
}

func (m *MockForumLookup) Lookup(ctx context.Context, id domain.ForumId) (*domain.Forum, error) {
	f, ok := m.forums[id]
	if !ok {
		return nil, internal_errors.NotFound("Forum not found")
	}
	return f, nil
}

type MockPostStorage struct {
	getThreadFunc      func(id domain.ThreadId) (domain.ThreadMetadata, error)
	createPostFunc     func(data domain.PostCreationData) (*domain.Post, error)
	getPostFunc        func(thread domain.ThreadId, id domain.PostId) (*domain.Post, error)
	updatePostBodyFunc func(thread domain.ThreadId, id domain.PostId, body domain.PostBody) error
	deletePostFunc     func(thread domain.ThreadId, id domain.PostId) error

	mu           sync.Mutex
	createCalled bool
	createdData  domain.PostCreationData
	updateCalled bool
	deleteCalled bool
}

func (m *MockPostStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error) {
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.ThreadMetadata{Id: id, ForumId: 1, Title: "Welcome"}, nil
}

func (m *MockPostStorage) CreatePost(ctx context.Context, data domain.PostCreationData) (*domain.Post, error) {
	m.mu.Lock()
	m.createCalled = true
	m.createdData = data
	m.mu.Unlock()
	if m.createPostFunc != nil {
		return m.createPostFunc(data)
	}
	return &domain.Post{Id: 10, ThreadId: data.Thread, Author: data.Author, Body: data.Body}, nil
}

func (m *MockPostStorage) GetPost(ctx context.Context, thread domain.ThreadId, id domain.PostId) (*domain.Post, error) {
	if m.getPostFunc != nil {
		return m.getPostFunc(thread, id)
	}
	return &domain.Post{Id: id, ThreadId: thread, Author: domain.User{Id: 1}, Body: "original"}, nil
}

func (m *MockPostStorage) UpdatePostBody(ctx context.Context, thread domain.ThreadId, id domain.PostId, body domain.PostBody) error {
	m.mu.Lock()
	m.updateCalled = true
	m.mu.Unlock()
	if m.updatePostBodyFunc != nil {
		return m.updatePostBodyFunc(thread, id, body)
	}
	return nil
}

func (m *MockPostStorage) DeletePost(ctx context.Context, thread domain.ThreadId, id domain.PostId) error {
	m.mu.Lock()
	m.deleteCalled = true
	m.mu.Unlock()
	if m.deletePostFunc != nil {
		return m.deletePostFunc(thread, id)
	}
	return nil
}

type MockRenderer struct{}

func (MockRenderer) Render(body string) string { return "<p>" + body + "</p>" }

type MockNotifier struct {
	mu    sync.Mutex
	posts []domain.PostId
}

func (m *MockNotifier) NotifyReply(thread domain.ThreadMetadata, post *domain.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, post.Id)
}

type MockSender struct {
	sendFunc func(msg email.Message) error

	mu   sync.Mutex
	sent []email.Message
}

func (m *MockSender) Send(msg email.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(msg)
	}
	return nil
}

func (m *MockSender) Sent() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}

type MockNotifierStorage struct {
	subscriberEmailsFunc func(thread domain.ThreadId) ([]domain.Email, error)
}

func (m *MockNotifierStorage) SubscriberEmails(ctx context.Context, thread domain.ThreadId) ([]domain.Email, error) {
	if m.subscriberEmailsFunc != nil {
		return m.subscriberEmailsFunc(thread)
	}
	return nil, nil
}

type MockSubscriptionStorage struct {
	listFunc func(author domain.UserId) ([]domain.Subscription, error)
	keepFunc func(author domain.UserId, keep []domain.ThreadId) error
}

func (m *MockSubscriptionStorage) ListSubscriptions(ctx context.Context, author domain.UserId) ([]domain.Subscription, error) {
	if m.listFunc != nil {
		return m.listFunc(author)
	}
	return nil, nil
}

func (m *MockSubscriptionStorage) KeepSubscriptions(ctx context.Context, author domain.UserId, keep []domain.ThreadId) error {
	if m.keepFunc != nil {
		return m.keepFunc(author, keep)
	}
	return nil
}

type MockAuthStorage struct {
	createUserFunc        func(data domain.UserCreationData) (domain.UserId, error)
	getUserByUsernameFunc func(username domain.Username) (domain.User, error)
	addUserGroupFunc      func(id domain.UserId, group domain.GroupName) error
	removeUserGroupFunc   func(id domain.UserId, group domain.GroupName) error
}

func (m *MockAuthStorage) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.UserId, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(data)
	}
	return 1, nil
}

func (m *MockAuthStorage) GetUserByUsername(ctx context.Context, username domain.Username) (domain.User, error) {
	if m.getUserByUsernameFunc != nil {
		return m.getUserByUsernameFunc(username)
	}
	return domain.User{}, internal_errors.NotFound("User not found")
}

func (m *MockAuthStorage) AddUserGroup(ctx context.Context, id domain.UserId, group domain.GroupName) error {
	if m.addUserGroupFunc != nil {
		return m.addUserGroupFunc(id, group)
	}
	return nil
}

func (m *MockAuthStorage) RemoveUserGroup(ctx context.Context, id domain.UserId, group domain.GroupName) error {
	if m.removeUserGroupFunc != nil {
		return m.removeUserGroupFunc(id, group)
	}
	return nil
}

type MockJwt struct {
	newTokenFunc func(user domain.User) (string, error)
}

func (m *MockJwt) NewToken(user domain.User) (string, error) {
	if m.newTokenFunc != nil {
		return m.newTokenFunc(user)
	}
	return "token", nil
}

// --- Helpers ---

func testConfig() *config.Public {
	cfg := config.DefaultPublic()
	return &cfg
}

func forum(id domain.ForumId, parent int64, slug string, groups ...domain.GroupName) domain.Forum {
	f := domain.Forum{Id: id, Slug: slug, Title: slug, AccessGroups: groups}
	if parent != 0 {
		f.ParentId = sql.NullInt64{Int64: parent, Valid: true}
	}
	return f
}

type MockSyndicationStorage struct {
	getThreadFunc     func(id domain.ThreadId) (domain.ThreadMetadata, error)
	recentThreadsFunc func(forums []domain.ForumId, limit int) ([]domain.ThreadMetadata, error)
	recentPostsFunc   func(thread domain.ThreadId, limit int) ([]*domain.Post, error)
	postsInForumsFunc func(forums []domain.ForumId, limit int) ([]domain.PostListing, error)
}

func (m *MockSyndicationStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.ThreadMetadata, error) {
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.ThreadMetadata{Id: id, ForumId: 1, Title: "Welcome"}, nil
}

func (m *MockSyndicationStorage) RecentThreads(ctx context.Context, forums []domain.ForumId, limit int) ([]domain.ThreadMetadata, error) {
	if m.recentThreadsFunc != nil {
		return m.recentThreadsFunc(forums, limit)
	}
	return nil, nil
}

func (m *MockSyndicationStorage) RecentPosts(ctx context.Context, thread domain.ThreadId, limit int) ([]*domain.Post, error) {
	if m.recentPostsFunc != nil {
		return m.recentPostsFunc(thread, limit)
	}
	return nil, nil
}

func (m *MockSyndicationStorage) PostsInForums(ctx context.Context, forums []domain.ForumId, limit int) ([]domain.PostListing, error) {
	if m.postsInForumsFunc != nil {
		return m.postsInForumsFunc(forums, limit)
	}
	return nil, nil
}
