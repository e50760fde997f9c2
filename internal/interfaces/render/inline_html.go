package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InlineHTML converts the inline markdown a content line may carry —
// `[label](url)` links from the URL-balloon rule and `*caption*` italics —
// into escaped HTML. Block structure is owned by the line state machine,
// so only inline nodes are rendered.
func InlineHTML(line string) string {
	if line == "" {
		return ""
	}

	src := []byte(line)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	r := &inlineRenderer{src: src}
	r.renderChildren(&buf, doc)
	return buf.String()
}

// inlineRenderer walks the goldmark AST and emits a constrained HTML
// subset: <a>, <em>, <strong>, <code>, escaped text.
type inlineRenderer struct {
	src []byte
}

func (r *inlineRenderer) renderNode(w *bytes.Buffer, node ast.Node) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		r.renderChildren(w, node)

	case *ast.Text:
		w.WriteString(html.EscapeString(string(n.Segment.Value(r.src))))
		if n.SoftLineBreak() || n.HardLineBreak() {
			w.WriteString(" ")
		}

	case *ast.String:
		w.WriteString(html.EscapeString(string(n.Value)))

	case *ast.CodeSpan:
		w.WriteString("<code>")
		r.renderCodeSpanText(w, n)
		w.WriteString("</code>")

	case *ast.Emphasis:
		if n.Level == 2 {
			w.WriteString("<strong>")
			r.renderChildren(w, n)
			w.WriteString("</strong>")
		} else {
			w.WriteString("<em>")
			r.renderChildren(w, n)
			w.WriteString("</em>")
		}

	case *ast.Link:
		w.WriteString("<a href=\"")
		w.WriteString(html.EscapeString(string(n.Destination)))
		w.WriteString("\">")
		r.renderChildren(w, n)
		w.WriteString("</a>")

	case *ast.AutoLink:
		url := string(n.URL(r.src))
		w.WriteString("<a href=\"")
		w.WriteString(html.EscapeString(url))
		w.WriteString("\">")
		w.WriteString(html.EscapeString(url))
		w.WriteString("</a>")

	default:
		r.renderChildren(w, node)
	}
}

func (r *inlineRenderer) renderChildren(w *bytes.Buffer, node ast.Node) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		r.renderNode(w, child)
	}
}

func (r *inlineRenderer) renderCodeSpanText(w *bytes.Buffer, node ast.Node) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			w.WriteString(html.EscapeString(string(t.Segment.Value(r.src))))
		} else {
			r.renderCodeSpanText(w, child)
		}
	}
}
