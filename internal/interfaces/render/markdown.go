// Package render serializes thread groups into the canonical markdown
// grammar and parses that same grammar back into styled HTML. The grammar
// is self-describing and bit-exact: RoundTrip consumes exactly what
// MarkdownRenderer emits, nothing more general.
package render

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/chatvault/chatvault/internal/domain/entity"
	"github.com/chatvault/chatvault/internal/domain/repository"
	"github.com/chatvault/chatvault/internal/domain/service"
	"github.com/chatvault/chatvault/internal/domain/valueobject"
)

// timeLayout is the header timestamp format, local time.
const timeLayout = "2006-01-02 15:04"

// selfName is the rendered sender name for messages from me. The round
// tripper keys its self-flag on it.
const selfName = "me"

// MarkdownRenderer 将线程分组序列化为规范文本语法
type MarkdownRenderer struct {
	cfg      valueobject.ExportConfig
	content  *service.ContentResolver
	resolver repository.NameResolver
}

// NewMarkdownRenderer 创建渲染器; resolver 可为 nil
func NewMarkdownRenderer(cfg valueobject.ExportConfig, content *service.ContentResolver, resolver repository.NameResolver) *MarkdownRenderer {
	return &MarkdownRenderer{cfg: cfg, content: content, resolver: resolver}
}

// Render serializes groups in order. Name lookups are awaited in place and
// memoized per call, so output ordering is the grouped order regardless of
// lookup latency.
func (r *MarkdownRenderer) Render(ctx context.Context, groups []entity.ThreadGroup, attachments map[int64][]*entity.Attachment) string {
	var b strings.Builder
	names := make(map[string]string)

	for _, group := range groups {
		r.writeMessage(ctx, &b, group.Parent, nil, group.Reactions, attachments, names)
		for _, reply := range group.Replies {
			r.writeMessage(ctx, &b, reply, group.Parent, nil, attachments, names)
		}
	}
	return b.String()
}

func (r *MarkdownRenderer) writeMessage(
	ctx context.Context,
	b *strings.Builder,
	m *entity.Message,
	quotedParent *entity.Message,
	reactions []*entity.Message,
	attachments map[int64][]*entity.Attachment,
	names map[string]string,
) {
	fmt.Fprintf(b, "### %s [%s]\n\n", r.resolveName(ctx, m, names), m.SentAt().Local().Format(timeLayout))

	if quotedParent != nil {
		r.writeQuote(ctx, b, quotedParent, names)
	}

	if body := r.renderBody(m); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	trailer := false
	for _, att := range attachments[m.RowID] {
		name := att.Name()
		if name == "" {
			continue
		}
		fmt.Fprintf(b, "[Attachment: %s](%s)\n", name, path.Join(r.cfg.AttachmentDir, name))
		if att.IsSticker {
			b.WriteString("*sticker*\n")
		}
		trailer = true
	}

	if r.cfg.IncludeReactions {
		if line := r.reactionsLine(ctx, reactions, names); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
			trailer = true
		}
	}

	if trailer {
		b.WriteString("\n")
	}
	b.WriteString("---\n\n")
}

// writeQuote emits the quoted-parent block of a reply: a quote header line
// and the parent text collapsed to one line, truncated to MaxQuoteLength
// characters with an ellipsis when exceeded.
func (r *MarkdownRenderer) writeQuote(ctx context.Context, b *strings.Builder, parent *entity.Message, names map[string]string) {
	fmt.Fprintf(b, "> %s [%s]:\n", r.resolveName(ctx, parent, names), parent.SentAt().Local().Format(timeLayout))

	text, _ := r.content.EffectiveText(parent)
	text = strings.Join(strings.Fields(text), " ")
	if max := r.cfg.MaxQuoteLength; max > 0 {
		runes := []rune(text)
		if len(runes) > max {
			text = string(runes[:max]) + "..."
		}
	}
	if text != "" {
		fmt.Fprintf(b, "> %s\n", text)
	}
	b.WriteString("\n")
}

func (r *MarkdownRenderer) reactionsLine(ctx context.Context, reactions []*entity.Message, names map[string]string) string {
	var entries []string
	for _, reaction := range reactions {
		kind := service.Classify(reaction)
		if kind.Variant != valueobject.VariantTapback || kind.TapbackAction != valueobject.TapbackAdded {
			// Removed tapbacks would misreport current state.
			continue
		}
		glyph := kind.TapbackGlyph()
		if glyph == "" {
			continue
		}
		entries = append(entries, r.resolveName(ctx, reaction, names)+" "+glyph)
	}
	if len(entries) == 0 {
		return ""
	}
	return "[Reactions: " + strings.Join(entries, ", ") + "]"
}

// renderBody produces the body text for one message according to its kind.
func (r *MarkdownRenderer) renderBody(m *entity.Message) string {
	kind := service.Classify(m)
	text, hasText := r.content.EffectiveText(m)

	switch kind.Variant {
	case valueobject.VariantNormal, valueobject.VariantEdited:
		return text

	case valueobject.VariantApp:
		if kind.IsURLBalloon() && hasText {
			if url, found := service.FirstURL(text); found {
				return fmt.Sprintf("[%s](%s)", text, url)
			}
			return text
		}
		if hasText {
			return text
		}
		return fmt.Sprintf("[%s message]", kind.Balloon.DisplayName())

	case valueobject.VariantSharePlay:
		return "[SharePlay session]"

	case valueobject.VariantGroupAction:
		return groupActionBody(kind)

	case valueobject.VariantAudioKept:
		return "[Audio message kept]"

	case valueobject.VariantLocationShare:
		return locationBody(kind.Location)

	case valueobject.VariantUnknown:
		return fmt.Sprintf("[Unsupported message type %d]", kind.RawCode)
	}
	return text
}

func groupActionBody(kind valueobject.MessageKind) string {
	switch kind.GroupAction {
	case valueobject.GroupParticipantAdded:
		return "[A participant was added to the conversation]"
	case valueobject.GroupParticipantRemoved:
		return "[A participant was removed from the conversation]"
	case valueobject.GroupNameChanged:
		if kind.GroupTitle == "" {
			return "[Group name cleared]"
		}
		return fmt.Sprintf("[Group name changed to %q]", kind.GroupTitle)
	case valueobject.GroupParticipantLeft:
		return "[A participant left the conversation]"
	case valueobject.GroupIconChanged:
		return "[Group icon changed]"
	case valueobject.GroupIconRemoved:
		return "[Group icon removed]"
	}
	return ""
}

func locationBody(status valueobject.LocationStatus) string {
	switch status {
	case valueobject.LocationSharing:
		return "[Started sharing location]"
	case valueobject.LocationEnded:
		return "[Stopped sharing location]"
	case valueobject.LocationNotShared:
		return "[Shared a location]"
	default:
		return "[Location sharing update]"
	}
}

// resolveName produces the rendered sender name: "me" for self, else the
// resolved display name, else the raw handle, else "unknown". Results are
// memoized per render pass.
func (r *MarkdownRenderer) resolveName(ctx context.Context, m *entity.Message, names map[string]string) string {
	if m.IsFromMe {
		return selfName
	}
	handle := m.SenderHandle
	if handle == "" {
		return "unknown"
	}
	if cached, found := names[handle]; found {
		return cached
	}

	name := handle
	if r.resolver != nil {
		if resolved, ok := r.resolver.ResolveDisplayName(ctx, handle); ok && resolved != "" {
			name = resolved
		}
	}
	if r.cfg.SanitizeNames {
		name = sanitizeName(name)
	}
	names[handle] = name
	return name
}

// sanitizeName converts spaces to '_' and strips everything that is not a
// letter, digit, '_', '-' or '.'.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
