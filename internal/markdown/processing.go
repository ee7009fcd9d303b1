package markdown

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// TextProcessor renders agenda item content. Markdown support is
// deliberately narrow: emphasis, code spans, fenced code and
// strikethrough. Everything else stays plain text and the result is
// sanitized before it reaches a template.
type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *TextProcessor {
	p := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)

	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRendererOptions(html.WithUnsafe()),
		goldmark.WithExtensions(extension.Strikethrough),
	)

	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "em", "strong", "del", "code", "pre", "br")

	return &TextProcessor{md: md, policy: policy}
}

// Render converts markdown to sanitized HTML safe for templates.
func (tp *TextProcessor) Render(content string) template.HTML {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(content), &buf); err != nil {
		// fall back to the sanitized raw text
		return template.HTML(tp.policy.Sanitize(content))
	}
	safe := tp.policy.Sanitize(strings.TrimSpace(buf.String()))
	return template.HTML(safe)
}
