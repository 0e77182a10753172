package narrate

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// SpeakableText strips markdown the model may have emitted (emphasis,
// code spans, links, headings) and collapses whitespace, so synthesizers
// do not read out formatting characters.
func SpeakableText(s string) string {
	if !strings.ContainsAny(s, "*_`#[]<>~") {
		return strings.Join(strings.Fields(s), " ")
	}

	reader := text.NewReader([]byte(s))
	doc := markdown.Parser().Parse(reader)

	var buf strings.Builder
	walk(doc, reader.Source(), &buf)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func walk(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return

	case *ast.CodeBlock, *ast.FencedCodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
			buf.WriteByte(' ')
		}
		return

	case *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.AutoLink:
		buf.Write(n.Label(source))
		return

	case *ast.Image:
		// Alt text only.
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c, source, buf)
		}
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walk(c, source, buf)
	}
	if node.Type() == ast.TypeBlock {
		buf.WriteByte(' ')
	}
}
