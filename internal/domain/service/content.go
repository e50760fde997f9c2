package service

import (
	"regexp"
	"strings"

	"github.com/chatvault/chatvault/internal/domain/entity"
)

// RichTextDecoder recovers plain text from the legacy rich-text blob.
// Implementations never fail past this boundary: a false return means
// "no text", whatever went wrong internally.
type RichTextDecoder interface {
	Decode(data []byte) (string, bool)
}

// ContentResolver 内容解析: 合并明文列与富文本解码结果
type ContentResolver struct {
	decoder RichTextDecoder
}

// NewContentResolver 创建内容解析器
func NewContentResolver(decoder RichTextDecoder) *ContentResolver {
	return &ContentResolver{decoder: decoder}
}

// EffectiveText returns the message body: the plain-text column when
// non-empty, else the decoded rich-text blob, else nothing.
func (r *ContentResolver) EffectiveText(m *entity.Message) (string, bool) {
	if text := m.PlainText(); text != "" {
		return text, true
	}
	if r.decoder != nil && len(m.AttributedBody) > 0 {
		if text, ok := r.decoder.Decode(m.AttributedBody); ok && text != "" {
			return text, true
		}
	}
	return "", false
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// FirstURL locates the first well-formed link substring in text.
// Used for the URL-balloon presentation rule; first match wins.
func FirstURL(text string) (string, bool) {
	match := urlPattern.FindString(text)
	if match == "" {
		return "", false
	}
	// A trailing sentence period is punctuation, not part of the link.
	match = strings.TrimRight(match, ".,;")
	return match, match != ""
}
