package sitemap

import (
	"encoding/xml"
	"io"
	"slices"
	"strings"
	"time"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Sections are the documents listed by the sitemap index, in order.
var Sections = []string{"forums", "threads", "posts"}

type URL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type Ref struct {
	Loc string `xml:"loc"`
}

type Index struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Xmlns    string   `xml:"xmlns,attr"`
	Sitemaps []Ref    `xml:"sitemap"`
}

func IsSection(name string) bool {
	return slices.Contains(Sections, name)
}

// Builder makes absolute locations under siteURL.
type Builder struct {
	siteURL string
	urls    []URL
}

func New(siteURL string) *Builder {
	return &Builder{siteURL: strings.TrimRight(siteURL, "/")}
}

// Add appends path; a zero lastMod is left out.
func (b *Builder) Add(path string, lastMod time.Time) {
	u := URL{Loc: b.siteURL + path}
	if !lastMod.IsZero() {
		u.LastMod = lastMod.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

func (b *Builder) URLSet() URLSet {
	return URLSet{Xmlns: xmlns, URLs: b.urls}
}

// Index lists every section document.
func (b *Builder) Index() Index {
	idx := Index{Xmlns: xmlns}
	for _, s := range Sections {
		idx.Sitemaps = append(idx.Sitemaps, Ref{Loc: b.siteURL + "/sitemap-" + s + ".xml"})
	}
	return idx
}

func Write(w io.Writer, doc any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Flush()
}
