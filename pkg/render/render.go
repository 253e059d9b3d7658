// Package render adapts the external text converters the engines consume:
// offer content is markdown, comments are BBCode. Sanitisation of the
// produced HTML happens upstream of storage and is not this service's job.
package render

import (
	"github.com/frustra/bbcode"
	"github.com/russross/blackfriday/v2"
)

func NewRenderer() *Renderer {
	compiler := bbcode.NewCompiler(true, true)
	// [code] renders as a preformatted block
	compiler.SetTag("code", func(node *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		tag := bbcode.NewHTMLTag("")
		tag.Name = "pre"
		return tag, true
	})

	return &Renderer{bbcode: compiler}
}

type Renderer struct {
	bbcode bbcode.Compiler
}

// Markdown converts offer markdown to HTML.
func (r *Renderer) Markdown(source string) string {
	return string(blackfriday.Run([]byte(source)))
}

// BBCode converts comment BBCode to HTML.
func (r *Renderer) BBCode(source string) string {
	return r.bbcode.Compile(source)
}
