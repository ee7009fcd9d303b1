package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderEmphasis(t *testing.T) {
	tp := New()

	out := string(tp.Render("this is *important*"))

	assert.Contains(t, out, "<em>important</em>")
}

func TestRenderStripsScripts(t *testing.T) {
	tp := New()

	out := string(tp.Render(`<script>alert("x")</script>hello`))

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestRenderStripsLinks(t *testing.T) {
	tp := New()

	out := string(tp.Render("[click](https://evil.example)"))

	assert.NotContains(t, out, "<a ")
}

func TestRenderCodeSpan(t *testing.T) {
	tp := New()

	out := string(tp.Render("run `go test` first"))

	assert.Contains(t, out, "<code>go test</code>")
}

func TestRenderPlainText(t *testing.T) {
	tp := New()

	out := string(tp.Render("just words"))

	assert.Contains(t, out, "just words")
}
