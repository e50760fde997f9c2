package entity

import (
	"strings"
	"time"
)

// appleEpoch 苹果时间基准: chat.db 的时间列是自 2001-01-01 UTC 起的纳秒偏移
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// AppleTime converts a chat.db timestamp column (nanoseconds since the
// Cocoa epoch) into a time.Time. Zero offsets map to the epoch itself;
// callers treat a zero column as "unset" before converting.
func AppleTime(offset int64) time.Time {
	return appleEpoch.Add(time.Duration(offset))
}

// Message 消息实体: chat.db 的一行, 读取后不可变
//
// Classification and effective text are derived views computed by the
// domain services; nothing here is mutated after the store builds it.
type Message struct {
	RowID int64
	GUID  string

	// Timestamps, all nanosecond offsets from the Cocoa epoch. Zero = unset.
	DateSent      int64
	DateRead      int64
	DateDelivered int64
	DateEdited    int64

	IsFromMe bool

	// SenderHandle is the joined handle.id (phone number or email).
	// Empty for messages from me and for rows with no handle.
	SenderHandle string

	// Text is the plain-text column; nil when the row only carries the
	// attributedBody blob.
	Text *string

	// AttributedBody is the legacy/keyed-archive rich text blob.
	AttributedBody []byte

	// Raw classification fields, consumed by the classifier rule cascade.
	ItemType              int64
	GroupActionType       int64
	AssociatedMessageType int64
	AssociatedMessageGUID *string
	AssociatedEmoji       *string
	BalloonBundleID       *string
	ShareStatus           bool
	ShareDirection        *bool
	OtherHandle           int64
	GroupTitle            *string

	NumAttachments       int64
	NumReplies           int64
	ThreadOriginatorGUID *string
}

// SentAt 返回消息发送时间
func (m *Message) SentAt() time.Time {
	return AppleTime(m.DateSent)
}

// Edited reports whether the message carries a post-send edit timestamp.
func (m *Message) Edited() bool {
	return m.DateEdited > 0
}

// IsReply reports whether the message is anchored to a thread originator.
func (m *Message) IsReply() bool {
	return m.ThreadOriginatorGUID != nil && *m.ThreadOriginatorGUID != ""
}

// AssociatedGUID returns the associated-message guid with the part prefix
// ("p:0/", "bp:") that chat.db stores stripped, so it compares equal to the
// target message's own guid.
func (m *Message) AssociatedGUID() string {
	if m.AssociatedMessageGUID == nil {
		return ""
	}
	guid := *m.AssociatedMessageGUID
	if idx := strings.Index(guid, "/"); idx >= 0 && strings.HasPrefix(guid, "p:") {
		return guid[idx+1:]
	}
	return strings.TrimPrefix(guid, "bp:")
}

// PlainText returns the plain-text column, or "" when absent.
func (m *Message) PlainText() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}
