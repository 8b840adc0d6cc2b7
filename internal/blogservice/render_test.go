package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  int
	}{
		{name: "empty", input: "", want: 0},
		{name: "only whitespace", input: " \t\n ", want: 0},
		{name: "three words", input: "one two three", want: 3},
		{name: "mixed whitespace", input: "  one\ttwo\n\nthree  four ", want: 4},
		{name: "punctuation stays attached", input: "hello, world! it's me.", want: 4},
		{name: "markdown", input: "# Title\n\n- item one\n- item two", want: 8},
		{name: "unicode spaces", input: "one\u00a0two\u2003three", want: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, countWords(tc.input))
		})
	}
}

func TestRenderContent(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "heading and emphasis",
			input:    "# Hello\n\nThis is *important*.",
			contains: []string{"<h1", "Hello</h1>", "<em>important</em>"},
		},
		{
			name:     "script tag removed",
			input:    "Here is some text.\n\n<script>alert('Hello, World!');</script>\n\nMore text.",
			contains: []string{"Here is some text.", "More text."},
			excludes: []string{"<script", "alert("},
		},
		{
			name:     "links open in a new tab",
			input:    "[docs](https://example.com)",
			contains: []string{`href="https://example.com"`, `target="_blank"`},
		},
		{
			name:     "javascript links dropped",
			input:    "[click](javascript:alert)",
			excludes: []string{"javascript:"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := renderContent(tc.input)
			for _, c := range tc.contains {
				assert.Contains(t, output, c)
			}
			for _, e := range tc.excludes {
				assert.NotContains(t, output, e)
			}
		})
	}
}
