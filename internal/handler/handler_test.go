package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	mw "github.com/itchan-dev/forum/internal/middleware"
)

type stubRenderer struct{}

func (stubRenderer) Render(body string) string { return "<p>" + body + "</p>" }

type testServices struct {
	forum        *MockForumService
	thread       *MockThreadService
	post         *MockPostService
	subscription *MockSubscriptionService
	auth         *MockAuthService
	syndication  *MockSyndicationService
}

func newTestServices() *testServices {
	return &testServices{
		forum:        &MockForumService{},
		thread:       &MockThreadService{},
		post:         &MockPostService{},
		subscription: &MockSubscriptionService{},
		auth:         &MockAuthService{},
		syndication:  &MockSyndicationService{},
	}
}

var testPublic = config.Public{
	SiteURL:           "https://forum.test",
	SiteName:          "Test forum",
	ThreadsPerPage:    20,
	PostsPerPage:      10,
	FeedItems:         20,
	ThreadTitleMaxLen: 100,
	JwtTTL:            time.Hour,
}

var testTemplates = MustLoadTemplates(stubRenderer{})

func (s *testServices) handler() *Handler {
	return New(testTemplates, testPublic, Services{
		Forum:        s.forum,
		Thread:       s.thread,
		Post:         s.post,
		Subscription: s.subscription,
		Auth:         s.auth,
		Syndication:  s.syndication,
	}, stubRenderer{})
}

// testRouter mounts the handlers on the same paths the server uses, without
// the auth and CSRF middleware.
func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/sitemap.xml", h.SitemapIndex)
	r.Get("/sitemap-{section}.xml", h.SitemapSection)
	r.Get("/{format:(rss|atom)}/thread/{thread}/", h.ThreadFeed)
	r.Get("/{format:(rss|atom)}/*", h.LatestThreadsFeed)

	r.Get("/", h.Index)
	r.Get("/accounts/login/", h.LoginGet)
	r.Post("/accounts/login/", h.LoginPost)
	r.Post("/accounts/logout/", h.Logout)
	r.Get("/thread/{thread}/", h.GetThread)
	r.Get("/thread/{thread}/reply/", h.Reply)
	r.Post("/thread/{thread}/reply/", h.Reply)
	r.Get("/thread/{thread}/post/{post}/edit/", h.EditPost)
	r.Post("/thread/{thread}/post/{post}/edit/", h.EditPost)
	r.Get("/thread/{thread}/post/{post}/delete/", h.DeletePost)
	r.Post("/thread/{thread}/post/{post}/delete/", h.DeletePost)
	r.Get("/subscriptions/", h.GetSubscriptions)
	r.Post("/subscriptions/", h.PostSubscriptions)
	r.Post("/admin/thread/{thread}/sticky", h.ToggleSticky)
	r.Post("/admin/thread/{thread}/close", h.ToggleClosed)
	r.Get("/*", h.Forum)
	r.Post("/*", h.Forum)
	return r
}

func serve(t *testing.T, s *testServices, req *http.Request, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		req = req.WithContext(mw.WithUser(req.Context(), user))
	}
	rr := httptest.NewRecorder()
	testRouter(s.handler()).ServeHTTP(rr, req)
	return rr
}

func get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var (
	alice = &domain.User{Id: 1, Username: "alice", Email: "alice@example.com"}
	admin = &domain.User{Id: 2, Username: "root", Admin: true}
)

func testForum() *domain.Forum {
	return &domain.Forum{Id: 1, Slug: "offtopic", Path: []domain.ForumSlug{"general", "offtopic"}, Title: "Off topic"}
}

func testThread(id domain.ThreadId) *domain.Thread {
	return &domain.Thread{
		ThreadMetadata: domain.ThreadMetadata{Id: id, ForumId: 1, Title: "Hello world", PostCount: 1},
		Forum:          testForum(),
	}
}

func TestIndex(t *testing.T) {
	t.Run("lists visible forums", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockList = func(user *domain.User) ([]*domain.Forum, error) {
			assert.Equal(t, alice, user)
			general := &domain.Forum{Id: 1, Slug: "general", Title: "General talk", ThreadCount: 3}
			general.Children = []*domain.Forum{testForum()}
			return []*domain.Forum{general}, nil
		}

		rr := serve(t, s, get("/"), alice)

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, `href="/general/"`)
		assert.Contains(t, body, "General talk")
		assert.Contains(t, body, `href="/general/offtopic/"`)
		assert.Contains(t, body, "alice")
	})

	t.Run("storage failure hides details", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockList = func(user *domain.User) ([]*domain.Forum, error) {
			return nil, errors.New("connection refused")
		}

		rr := serve(t, s, get("/"), nil)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Something went wrong")
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})
}

func TestForumListing(t *testing.T) {
	t.Run("resolves nested path and page", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockResolve = func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
			assert.Equal(t, []domain.ForumSlug{"general", "offtopic"}, path)
			return testForum(), nil
		}
		s.forum.MockThreads = func(forum *domain.Forum, page int) (domain.Page[domain.ThreadMetadata], error) {
			assert.Equal(t, 2, page)
			return domain.Page[domain.ThreadMetadata]{
				Items: []domain.ThreadMetadata{
					{Id: 4, Title: "Pinned rules", IsSticky: true},
					{Id: 9, Title: "Latest chatter"},
				},
				Number:  2,
				PerPage: 2,
				Total:   6,
			}, nil
		}

		rr := serve(t, s, get("/general/offtopic/?page=2"), nil)

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Off topic")
		assert.Contains(t, body, `href="/thread/4/"`)
		assert.Contains(t, body, "Sticky")
		assert.Less(t, strings.Index(body, "Pinned rules"), strings.Index(body, "Latest chatter"))
		assert.Contains(t, body, "Page 2 of 3")
		assert.Contains(t, body, `href="/general/offtopic/new/"`)
	})

	t.Run("missing trailing slash redirects", func(t *testing.T) {
		rr := serve(t, newTestServices(), get("/general/offtopic"), nil)

		assert.Equal(t, http.StatusMovedPermanently, rr.Code)
		assert.Equal(t, "/general/offtopic/", rr.Header().Get("Location"))
	})

	for _, page := range []string{"0", "-1", "abc"} {
		t.Run("invalid page "+page, func(t *testing.T) {
			rr := serve(t, newTestServices(), get("/general/?page="+page), nil)
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}

	t.Run("unknown forum", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockResolve = func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
			return nil, internal_errors.NotFound("Forum not found")
		}

		rr := serve(t, s, get("/nope/"), nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Page not found")
	})

	t.Run("forbidden forum looks missing", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockResolve = func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
			return nil, internal_errors.Forbidden("Forum not found")
		}

		rr := serve(t, s, get("/staff/"), alice)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "Page not found")
	})

	t.Run("post to listing is not allowed", func(t *testing.T) {
		rr := serve(t, newTestServices(), postForm("/general/", url.Values{}), alice)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, "GET, HEAD", rr.Header().Get("Allow"))
	})
}

func TestNewThread(t *testing.T) {
	validForm := func() url.Values {
		return url.Values{"title": {"First!"}, "body": {"hello"}, "subscribe": {"1"}}
	}

	t.Run("anonymous user is sent to login", func(t *testing.T) {
		rr := serve(t, newTestServices(), get("/general/offtopic/new/"), nil)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/accounts/login/?next=%2Fgeneral%2Fofftopic%2Fnew%2F", rr.Header().Get("Location"))
	})

	t.Run("form strips the new segment", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockResolve = func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
			assert.Equal(t, []domain.ForumSlug{"general", "offtopic"}, path)
			return testForum(), nil
		}

		rr := serve(t, s, get("/general/offtopic/new/"), alice)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `action="/general/offtopic/new/"`)
		assert.Contains(t, rr.Body.String(), `maxlength="100"`)
	})

	t.Run("a root forum called new is still a listing", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockResolve = func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
			assert.Equal(t, []domain.ForumSlug{"new"}, path)
			return nil, internal_errors.NotFound("Forum not found")
		}

		rr := serve(t, s, get("/new/"), alice)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("creates and redirects", func(t *testing.T) {
		s := newTestServices()
		s.forum.MockResolve = func(user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
			return testForum(), nil
		}
		called := false
		s.thread.MockCreate = func(forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
			called = true
			assert.Equal(t, domain.ForumId(1), forum.Id)
			assert.Equal(t, "First!", data.Title)
			assert.Equal(t, "hello", data.Body)
			assert.True(t, data.Subscribe)
			assert.Equal(t, alice.Id, data.Author.Id)
			return 7, nil
		}

		rr := serve(t, s, postForm("/general/offtopic/new/", validForm()), alice)

		assert.True(t, called)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/thread/7/", rr.Header().Get("Location"))
	})

	t.Run("missing fields", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockCreate = func(forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
			t.Fatal("Create must not be called")
			return 0, nil
		}

		rr := serve(t, s, postForm("/general/new/", url.Values{"body": {"hello"}}), alice)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "This field is required")
		assert.Contains(t, rr.Body.String(), "hello")
	})

	t.Run("preview stores nothing", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockCreate = func(forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
			t.Fatal("Create must not be called")
			return 0, nil
		}
		form := validForm()
		form.Set("preview", "1")

		rr := serve(t, s, postForm("/general/new/", form), alice)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "<p>hello</p>")
		assert.Contains(t, rr.Body.String(), `value="First!"`)
	})

	t.Run("service validation errors are shown on the form", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockCreate = func(forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
			return 0, internal_errors.NewValidationError("title", "Title is too long")
		}

		rr := serve(t, s, postForm("/general/new/", validForm()), alice)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Title is too long")
	})

	t.Run("no access to forum", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockCreate = func(forum *domain.Forum, data domain.ThreadCreationData) (domain.ThreadId, error) {
			return 0, internal_errors.Forbidden("You can't post in this forum")
		}

		rr := serve(t, s, postForm("/general/new/", validForm()), alice)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestGetThread(t *testing.T) {
	view := func() *domain.ThreadView {
		th := testThread(3)
		th.Posts = domain.Page[*domain.Post]{
			Items: []*domain.Post{
				{Id: 10, ThreadId: 3, Author: *alice, Body: "first post"},
				{Id: 11, ThreadId: 3, Author: domain.User{Id: 5, Username: "bob"}, Body: "second post"},
			},
			Number:  1,
			PerPage: 10,
			Total:   2,
		}
		return &domain.ThreadView{Thread: *th, Subscribed: true}
	}

	t.Run("renders posts", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockView = func(user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error) {
			assert.Equal(t, domain.ThreadId(3), id)
			assert.Equal(t, 1, page)
			return view(), nil
		}

		rr := serve(t, s, get("/thread/3/"), alice)

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "<p>first post</p>")
		assert.Contains(t, body, `id="post11"`)
		assert.Contains(t, body, "You are subscribed")
		assert.Contains(t, body, `href="/thread/3/post/10/edit/"`)
		assert.NotContains(t, body, `href="/thread/3/post/11/edit/"`)
		assert.NotContains(t, body, "/admin/thread/3/sticky")
	})

	t.Run("admin controls", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockView = func(user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error) {
			return view(), nil
		}

		rr := serve(t, s, get("/thread/3/"), admin)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "/admin/thread/3/sticky")
	})

	t.Run("non numeric id", func(t *testing.T) {
		rr := serve(t, newTestServices(), get("/thread/abc/"), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("hidden thread", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockView = func(user *domain.User, id domain.ThreadId, page int) (*domain.ThreadView, error) {
			return nil, internal_errors.NotFound("Thread not found")
		}

		rr := serve(t, s, get("/thread/3/?page=4"), nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestToggleThreadFlags(t *testing.T) {
	t.Run("sticky", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockToggleSticky = func(id domain.ThreadId) (bool, error) {
			assert.Equal(t, domain.ThreadId(5), id)
			return true, nil
		}

		rr := serve(t, s, postForm("/admin/thread/5/sticky", url.Values{}), admin)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/thread/5/", rr.Header().Get("Location"))
	})

	t.Run("close missing thread", func(t *testing.T) {
		s := newTestServices()
		s.thread.MockToggleClosed = func(id domain.ThreadId) (bool, error) {
			return false, internal_errors.NotFound("Thread not found")
		}

		rr := serve(t, s, postForm("/admin/thread/5/close", url.Values{}), admin)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
