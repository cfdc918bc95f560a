package view

import (
	"html/template"

	"gitlab.com/golang-commonmark/markdown"
)

// Article bodies are authored as CommonMark. Raw HTML is disabled so a
// journalist cannot smuggle script into an approved page.
var markdownParser = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// RenderMarkdown translates CommonMark to HTML for template embedding.
func RenderMarkdown(src string) template.HTML {
	return template.HTML(markdownParser.RenderToString([]byte(src)))
}
