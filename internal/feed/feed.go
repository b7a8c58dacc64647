package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/itchan-dev/forum/internal/domain"
)

type Format string

const (
	RSS  Format = "rss"
	Atom Format = "atom"
)

func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case RSS, Atom:
		return Format(s), true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == Atom {
		return "application/atom+xml; charset=utf-8"
	}
	return "application/rss+xml; charset=utf-8"
}

type Renderer interface {
	Render(body string) string
}

// Builder turns listings into feeds with absolute links under siteURL.
type Builder struct {
	siteURL  string
	siteName string
	renderer Renderer
}

func New(siteURL, siteName string, renderer Renderer) *Builder {
	return &Builder{siteURL: strings.TrimRight(siteURL, "/"), siteName: siteName, renderer: renderer}
}

func (b *Builder) abs(path string) string {
	return b.siteURL + path
}

// Threads builds a feed of threads. forum is nil for the site-wide feed.
func (b *Builder) Threads(forum *domain.Forum, threads []domain.ThreadMetadata) *feeds.Feed {
	f := &feeds.Feed{
		Title:       b.siteName,
		Link:        &feeds.Link{Href: b.abs("/")},
		Description: "Latest threads on " + b.siteName,
	}
	if forum != nil {
		f.Title = fmt.Sprintf("%s: %s", b.siteName, forum.Title)
		f.Link = &feeds.Link{Href: b.abs(forum.URL())}
		f.Description = forum.Description
		if f.Description == "" {
			f.Description = "Latest threads in " + forum.Title
		}
	}

	for _, t := range threads {
		f.Items = append(f.Items, &feeds.Item{
			Id:          b.abs(t.URL()),
			Title:       t.Title,
			Link:        &feeds.Link{Href: b.abs(t.URL())},
			Description: postCount(t.PostCount),
			Created:     t.CreatedAt,
			Updated:     t.LastPostAt,
		})
		f.Updated = latest(f.Updated, t.LastPostAt)
	}
	f.Created = f.Updated
	return f
}

// Posts builds a feed of a thread's posts, newest first as given.
func (b *Builder) Posts(thread *domain.Thread, posts []*domain.Post) *feeds.Feed {
	f := &feeds.Feed{
		Title:       fmt.Sprintf("%s: %s", b.siteName, thread.Title),
		Link:        &feeds.Link{Href: b.abs(thread.URL())},
		Description: "Latest posts in " + thread.Title,
	}
	for _, p := range posts {
		updated := p.CreatedAt
		if p.ModifiedAt.Valid {
			updated = p.ModifiedAt.Time
		}
		f.Items = append(f.Items, &feeds.Item{
			Id:          b.abs(p.URL()),
			Title:       "Re: " + thread.Title,
			Link:        &feeds.Link{Href: b.abs(p.URL())},
			Author:      &feeds.Author{Name: p.Author.Username},
			Description: b.renderer.Render(p.Body),
			Created:     p.CreatedAt,
			Updated:     updated,
		})
		f.Updated = latest(f.Updated, updated)
	}
	f.Created = f.Updated
	return f
}

func Write(w io.Writer, f *feeds.Feed, format Format) error {
	if format == Atom {
		return f.WriteAtom(w)
	}
	return f.WriteRss(w)
}

func postCount(n int) string {
	if n == 1 {
		return "1 post"
	}
	return fmt.Sprintf("%d posts", n)
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
