package service

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/forum/internal/access"
	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NewThreadSlug ends a forum path to address its new-thread form, so no
// forum at any depth may use it.
const NewThreadSlug = "new"

// ReservedSlugs are top-level path segments taken by other routes.
var ReservedSlugs = []domain.ForumSlug{"thread", "subscriptions", "rss", "atom", "accounts", "admin", "static", "metrics", "health", "ready", "new"}

// to mock service in tests
type ForumService interface {
	Create(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error)
	List(ctx context.Context, user *domain.User) ([]*domain.Forum, error)
	Visible(ctx context.Context, user *domain.User) ([]*domain.Forum, error)
	Resolve(ctx context.Context, user *domain.User, path []domain.ForumSlug) (*domain.Forum, error)
	Get(ctx context.Context, user *domain.User, id domain.ForumId) (*domain.Forum, error)
	Lookup(ctx context.Context, id domain.ForumId) (*domain.Forum, error)
	Threads(ctx context.Context, forum *domain.Forum, page int) (domain.Page[domain.ThreadMetadata], error)
}

type Forum struct {
	storage ForumStorage
	cfg     *config.Public
}

type ForumStorage interface {
	CreateForum(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error)
	GetForums(ctx context.Context) ([]domain.Forum, error)
	ListThreads(ctx context.Context, forum domain.ForumId, page, perPage int) ([]domain.ThreadMetadata, int, error)
}

func NewForum(storage ForumStorage, cfg *config.Public) *Forum {
	return &Forum{storage: storage, cfg: cfg}
}

func (f *Forum) Create(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error) {
	verr := &internal_errors.ValidationError{}
	switch {
	case !slugRegex.MatchString(data.Slug):
		verr.Add("slug", "Use lowercase letters, digits, dashes and underscores")
	case data.Slug == NewThreadSlug, data.ParentId == nil && slices.Contains(ReservedSlugs, data.Slug):
		verr.Add("slug", "This name is reserved")
	}
	data.Title = strings.TrimSpace(data.Title)
	if data.Title == "" {
		verr.Add("title", "This field is required")
	} else if utf8.RuneCountInString(data.Title) > 100 {
		verr.Add("title", "Title is too long")
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}
	return f.storage.CreateForum(ctx, data)
}

// List returns the forum index visible to user, in display order. A forum
// under a hidden parent is left out even when user may access it.
func (f *Forum) List(ctx context.Context, user *domain.User) ([]*domain.Forum, error) {
	forums, err := f.storage.GetForums(ctx)
	if err != nil {
		return nil, err
	}
	return access.Tree(forums, access.GroupsOf(user)), nil
}

// Visible lists, depth-first, every forum user may access on its own, whether
// or not its parent is visible. Children are pruned to the accessible ones.
func (f *Forum) Visible(ctx context.Context, user *domain.User) ([]*domain.Forum, error) {
	forums, err := f.storage.GetForums(ctx)
	if err != nil {
		return nil, err
	}
	groups := access.GroupsOf(user)
	var visible []*domain.Forum
	for _, forum := range access.Flatten(access.Nest(forums)) {
		if access.CanAccess(forum, groups) {
			visible = append(visible, forum)
		}
	}
	for _, forum := range visible {
		forum.Children = access.Prune(forum.Children, groups)
	}
	return visible, nil
}

// Resolve walks path from the root level down and checks access on the forum
// it ends at. Ancestors are only path segments. A forum that is missing or
// that user can't access is reported as not found.
func (f *Forum) Resolve(ctx context.Context, user *domain.User, path []domain.ForumSlug) (*domain.Forum, error) {
	forum, err := f.Find(ctx, path)
	if err != nil {
		return nil, err
	}
	groups := access.GroupsOf(user)
	if !access.CanAccess(forum, groups) {
		return nil, internal_errors.NotFound("Forum not found")
	}
	forum.Children = access.Prune(forum.Children, groups)
	return forum, nil
}

// Find is Resolve without access filtering, for administrative tools.
func (f *Forum) Find(ctx context.Context, path []domain.ForumSlug) (*domain.Forum, error) {
	if len(path) == 0 {
		return nil, internal_errors.NotFound("Forum not found")
	}
	forums, err := f.storage.GetForums(ctx)
	if err != nil {
		return nil, err
	}
	return walkPath(access.Nest(forums), path)
}

func walkPath(level []*domain.Forum, path []domain.ForumSlug) (*domain.Forum, error) {
	var current *domain.Forum
	for _, slug := range path {
		idx := slices.IndexFunc(level, func(c *domain.Forum) bool { return c.Slug == slug })
		if idx < 0 {
			return nil, internal_errors.NotFound("Forum not found")
		}
		current = level[idx]
		level = current.Children
	}
	return current, nil
}

// Get finds a forum by id and checks that user may access it.
func (f *Forum) Get(ctx context.Context, user *domain.User, id domain.ForumId) (*domain.Forum, error) {
	forum, err := f.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(forum, access.GroupsOf(user)) {
		return nil, internal_errors.NotFound("Forum not found")
	}
	return forum, nil
}

// Lookup finds a forum by id without any access filtering. Path is filled.
func (f *Forum) Lookup(ctx context.Context, id domain.ForumId) (*domain.Forum, error) {
	forums, err := f.storage.GetForums(ctx)
	if err != nil {
		return nil, err
	}
	byId := make(map[domain.ForumId]*domain.Forum, len(forums))
	for i := range forums {
		byId[forums[i].Id] = &forums[i]
	}

	forum, ok := byId[id]
	if !ok {
		return nil, internal_errors.NotFound("Forum not found")
	}
	var path []domain.ForumSlug
	for cur := forum; cur != nil; {
		path = append([]domain.ForumSlug{cur.Slug}, path...)
		if !cur.ParentId.Valid {
			break
		}
		cur = byId[cur.ParentId.Int64]
	}
	forum.Path = path
	return forum, nil
}

// Threads returns one page of the forum's threads, sticky first.
func (f *Forum) Threads(ctx context.Context, forum *domain.Forum, page int) (domain.Page[domain.ThreadMetadata], error) {
	page = max(1, page)
	threads, total, err := f.storage.ListThreads(ctx, forum.Id, page, f.cfg.ThreadsPerPage)
	if err != nil {
		return domain.Page[domain.ThreadMetadata]{}, err
	}
	result := domain.Page[domain.ThreadMetadata]{Items: threads, Number: page, PerPage: f.cfg.ThreadsPerPage, Total: total}
	if page > result.TotalPages() {
		return domain.Page[domain.ThreadMetadata]{}, internal_errors.NotFound("Page not found")
	}
	return result, nil
}
