package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// LineKind 消息块内的行类别
type LineKind int

const (
	LineText LineKind = iota
	LineQuote
	LineAttachment
	LineReactions
)

// Line is one classified line inside a message block.
type Line struct {
	Kind LineKind
	// Text holds the line content: quote/plain text, or the reaction list.
	Text string
	// Name and Path are set for attachment lines.
	Name string
	Path string
}

// MessageBlock is one parsed message: header fields plus classified lines.
type MessageBlock struct {
	Sender    string
	Timestamp string
	Self      bool
	Lines     []Line
}

// Body returns the plain content lines joined back together.
func (b MessageBlock) Body() string {
	var parts []string
	for _, line := range b.Lines {
		if line.Kind == LineText {
			parts = append(parts, line.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var (
	headerPattern     = regexp.MustCompile(`^### (.+) \[([^\]]+)\]$`)
	attachmentPattern = regexp.MustCompile(`^\[Attachment: (.+)\]\((.+)\)$`)
	reactionsPattern  = regexp.MustCompile(`^\[Reactions: (.+)\]$`)
)

// ParseDocument parses the exact grammar MarkdownRenderer emits back into
// structured message blocks. It is line-oriented: a header line opens a
// block, a separator or the next header closes it, and every other
// non-blank line is classified in place. It is not a markdown parser.
func ParseDocument(doc string) []MessageBlock {
	var blocks []MessageBlock
	var current *MessageBlock

	flush := func() {
		if current != nil {
			blocks = append(blocks, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimRight(raw, "\r")

		if match := headerPattern.FindStringSubmatch(line); match != nil {
			flush()
			current = &MessageBlock{
				Sender:    match[1],
				Timestamp: match[2],
				Self:      match[1] == selfName,
			}
			continue
		}
		if line == "---" {
			flush()
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "> "), line == ">":
			current.Lines = append(current.Lines, Line{
				Kind: LineQuote,
				Text: strings.TrimPrefix(strings.TrimPrefix(line, ">"), " "),
			})
		case attachmentPattern.MatchString(line):
			match := attachmentPattern.FindStringSubmatch(line)
			current.Lines = append(current.Lines, Line{
				Kind: LineAttachment,
				Name: match[1],
				Path: match[2],
			})
		case reactionsPattern.MatchString(line):
			match := reactionsPattern.FindStringSubmatch(line)
			current.Lines = append(current.Lines, Line{
				Kind: LineReactions,
				Text: match[1],
			})
		default:
			current.Lines = append(current.Lines, Line{Kind: LineText, Text: line})
		}
	}
	flush()
	return blocks
}

// HTMLRoundTripper consumes the renderer's own markdown output and
// produces the companion styled document.
type HTMLRoundTripper struct {
	title string
}

// NewHTMLRoundTripper 创建 HTML 回转器
func NewHTMLRoundTripper(title string) *HTMLRoundTripper {
	return &HTMLRoundTripper{title: title}
}

// RoundTrip parses markdown produced by MarkdownRenderer and renders the
// full HTML document.
func (t *HTMLRoundTripper) RoundTrip(markdown string) string {
	return t.RenderDocument(ParseDocument(markdown))
}

// RenderDocument wraps rendered message blocks in the document container.
func (t *HTMLRoundTripper) RenderDocument(blocks []MessageBlock) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(t.title))
	b.WriteString("<style>\n")
	b.WriteString(documentStyle)
	b.WriteString("</style>\n</head>\n<body>\n<div class=\"conversation\">\n")
	for _, block := range blocks {
		writeBlockHTML(&b, block)
	}
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}

// writeBlockHTML emits one message block. A quote block, once opened, is
// explicitly closed before any non-quote line is appended.
func writeBlockHTML(b *strings.Builder, block MessageBlock) {
	class := "other"
	if block.Self {
		class = "self"
	}
	fmt.Fprintf(b, "<div class=\"message %s\">\n", class)
	fmt.Fprintf(b, "<div class=\"meta\"><span class=\"sender\">%s</span> <span class=\"time\">%s</span></div>\n",
		html.EscapeString(block.Sender), html.EscapeString(block.Timestamp))

	quoteOpen := false
	closeQuote := func() {
		if quoteOpen {
			b.WriteString("</blockquote>\n")
			quoteOpen = false
		}
	}

	for _, line := range block.Lines {
		switch line.Kind {
		case LineQuote:
			if !quoteOpen {
				b.WriteString("<blockquote>\n")
				quoteOpen = true
			}
			fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(line.Text))
		case LineAttachment:
			closeQuote()
			b.WriteString(attachmentHTML(line))
		case LineReactions:
			closeQuote()
			fmt.Fprintf(b, "<div class=\"reactions\">%s</div>\n", html.EscapeString(line.Text))
		default:
			closeQuote()
			fmt.Fprintf(b, "<p>%s</p>\n", InlineHTML(line.Text))
		}
	}
	closeQuote()
	b.WriteString("</div>\n")
}

// attachmentHTML picks the embed tag from the file extension.
func attachmentHTML(line Line) string {
	name := html.EscapeString(line.Name)
	href := html.EscapeString(line.Path)
	switch mediaCategory(line.Name) {
	case "image":
		return fmt.Sprintf("<img src=\"%s\" alt=\"%s\">\n", href, name)
	case "video":
		return fmt.Sprintf("<video controls src=\"%s\"></video>\n", href)
	case "audio":
		return fmt.Sprintf("<audio controls src=\"%s\"></audio>\n", href)
	default:
		return fmt.Sprintf("<a class=\"attachment\" href=\"%s\">%s</a>\n", href, name)
	}
}

func mediaCategory(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "file"
	}
	switch strings.ToLower(name[idx+1:]) {
	case "jpg", "jpeg", "png", "gif", "webp", "heic", "tiff", "bmp":
		return "image"
	case "mov", "mp4", "m4v", "avi", "webm":
		return "video"
	case "caf", "mp3", "m4a", "aac", "wav", "amr", "ogg":
		return "audio"
	default:
		return "file"
	}
}

const documentStyle = `body { font-family: -apple-system, sans-serif; max-width: 48em; margin: 0 auto; padding: 1em; }
.message { border-radius: 8px; padding: 0.5em 1em; margin: 0.75em 0; }
.message.self { background: #d8f0ff; margin-left: 4em; }
.message.other { background: #f0f0f0; margin-right: 4em; }
.meta { font-size: 0.85em; color: #555; margin-bottom: 0.25em; }
.meta .sender { font-weight: 600; }
blockquote { border-left: 3px solid #bbb; margin: 0.25em 0; padding-left: 0.75em; color: #666; }
.reactions { font-size: 0.85em; color: #777; margin-top: 0.25em; }
img, video { max-width: 100%; border-radius: 4px; }
`
