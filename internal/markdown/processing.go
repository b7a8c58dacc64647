package markdown

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	renderhtml "github.com/yuin/goldmark/renderer/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(renderhtml.WithHardWraps()),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &TextProcessor{md: md, policy: policy, strict: bluemonday.StrictPolicy()}
}

// Render turns a post body into sanitized HTML. Raw HTML in the source is
// escaped by goldmark and whatever survives is filtered again by the policy.
func (tp *TextProcessor) Render(body string) string {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(body), &buf); err != nil {
		return tp.policy.Sanitize(html.EscapeString(body))
	}
	return strings.TrimSpace(tp.policy.Sanitize(buf.String()))
}

// StripTags removes every tag from s and unescapes entities.
func (tp *TextProcessor) StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tp.strict.Sanitize(s)))
}

// PlainText renders the body and strips the result, keeping paragraph breaks.
func (tp *TextProcessor) PlainText(body string) string {
	rendered := tp.Render(body)
	rendered = strings.NewReplacer(
		"<br/>\n", "\n", "<br>\n", "\n", "<br/>", "\n", "<br>", "\n",
		"</p>", "</p>\n\n", "</li>", "</li>\n",
	).Replace(rendered)
	return blankLines.ReplaceAllString(tp.StripTags(rendered), "\n\n")
}
