package entity

// Chat 会话实体
type Chat struct {
	RowID       int64
	GUID        string
	Identifier  string
	DisplayName string
	// Style: 43 = group chat, 45 = 1:1
	Style int64
}

// Name returns the display name, falling back to the chat identifier.
func (c *Chat) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Identifier
}

// IsGroup reports whether this is a group chat.
func (c *Chat) IsGroup() bool {
	return c.Style == 43
}

// Handle 联系人标识 (电话号码或邮箱)
type Handle struct {
	RowID   int64
	ID      string
	Service string
}
