package valueobject

import "time"

// ExportConfig 导出配置: 构造后不可变的值对象
type ExportConfig struct {
	// AttachmentDir is the directory attachment links point at and copies
	// land in, relative to the output document.
	AttachmentDir string

	IncludeReactions      bool
	IncludeSystemMessages bool

	// SanitizeNames strips rendered sender names down to letters, digits,
	// '_', '-', '.' and converts spaces to '_'.
	SanitizeNames bool

	// MaxQuoteLength truncates quoted parent text in reply blocks to this
	// many characters. Zero means unlimited.
	MaxQuoteLength int

	// From/To bound the export to messages sent within the range,
	// inclusive on both ends. Nil means unbounded on that side.
	From *time.Time
	To   *time.Time

	// MessageLimit keeps only the chronologically earliest N messages
	// after filtering. Zero means no cap.
	MessageLimit int

	// ThreadsOnly keeps only messages that are replies or have replies.
	ThreadsOnly bool

	// ThreadGUID restricts the export to one reply thread. When set it
	// fully determines inclusion and ThreadsOnly is ignored.
	ThreadGUID string
}

// InRange reports whether t falls inside the configured date range.
func (c ExportConfig) InRange(t time.Time) bool {
	if c.From != nil && t.Before(*c.From) {
		return false
	}
	if c.To != nil && t.After(*c.To) {
		return false
	}
	return true
}
