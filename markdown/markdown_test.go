package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string) string {
	t.Helper()
	out, err := Render(src)
	require.NoError(t, err)
	return string(out)
}

func TestRenderHeadings(t *testing.T) {
	got := render(t, "## Brief\n\nBuild a todo app.")
	assert.Contains(t, got, `<h2 id="brief">Brief</h2>`)
	assert.Contains(t, got, "<p>Build a todo app.</p>")
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"`code`", "<code>code</code>"},
		{"~~gone~~", "<del>gone</del>"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Contains(t, render(t, tt.input), tt.want)
		})
	}
}

func TestRenderCodeBlockWithLanguage(t *testing.T) {
	got := render(t, "```go\nfmt.Println(\"<hi>\")\n```")
	assert.Contains(t, got, `<code class="language-go">`)
	assert.Contains(t, got, "&lt;hi&gt;")
}

func TestRenderTable(t *testing.T) {
	got := render(t, "| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, got, "<table>")
	assert.Contains(t, got, "<th>a</th>")
	assert.Contains(t, got, "<td>2</td>")
}

func TestRenderStripsScripts(t *testing.T) {
	got := render(t, "hello <script>alert(1)</script> <b>world</b>")
	assert.NotContains(t, got, "<script")
	assert.Contains(t, got, "<b>world</b>")
}

func TestRenderDropsUnsafeLinks(t *testing.T) {
	got := render(t, "[click](javascript:alert(1)) [ok](https://example.com)")
	assert.NotContains(t, got, "javascript:")
	assert.Contains(t, got, `href="https://example.com"`)
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown("# Title").Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<h1")
	assert.Contains(t, buf.String(), "Title</h1>")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb\n\nc\n", Normalize("a  \r\nb\r\n\r\nc\t\n\n\n"))
	assert.Equal(t, "\n", Normalize(""))
}

func TestTextareaEditor(t *testing.T) {
	var e Editor = TextareaEditor{}
	assert.Equal(t, "", e.Edit("  \r\n \n"))
	assert.Equal(t, "## Brief\n\ntext\n", e.Edit("## Brief\r\n\r\ntext"))
}

func TestStarterTemplate(t *testing.T) {
	front := StarterTemplate("Frontend")
	assert.True(t, strings.HasPrefix(front, "## Brief\n"))
	for _, section := range []string{"## Requirements", "## Design", "## Data", "## Instructions", "## Bonus"} {
		assert.Contains(t, front, section)
	}
	assert.Equal(t, front, StarterTemplate("Backend"))
}
