package persistence

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatvault/chatvault/internal/domain/entity"
	"github.com/chatvault/chatvault/internal/domain/repository"
	domainErrors "github.com/chatvault/chatvault/pkg/errors"
)

// ChatDB 只读访问源消息数据库
type ChatDB struct {
	db *gorm.DB
}

// Open opens the source database read-only. The immutable flag keeps
// sqlite from touching WAL/journal files next to a live database.
func Open(path string) (*ChatDB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to open source database", err)
	}
	return &ChatDB{db: db}, nil
}

// NewChatDB wraps an existing gorm handle; used by tests.
func NewChatDB(db *gorm.DB) *ChatDB {
	return &ChatDB{db: db}
}

var _ repository.ChatStore = (*ChatDB)(nil)

type chatRow struct {
	RowID       int64  `gorm:"column:rowid"`
	GUID        string `gorm:"column:guid"`
	Identifier  string `gorm:"column:chat_identifier"`
	DisplayName string `gorm:"column:display_name"`
	Style       int64  `gorm:"column:style"`
}

const chatColumns = `c.ROWID AS rowid, COALESCE(c.guid, '') AS guid,
	c.chat_identifier, COALESCE(c.display_name, '') AS display_name, c.style`

// ChatByID 根据 rowid 查找会话
func (s *ChatDB) ChatByID(ctx context.Context, chatID int64) (*entity.Chat, error) {
	var row chatRow
	result := s.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT %s FROM chat c WHERE c.ROWID = ?", chatColumns), chatID).
		Scan(&row)
	if result.Error != nil {
		return nil, domainErrors.NewInternalErrorWithCause("chat lookup failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domainErrors.NewChatNotFoundError(chatID)
	}
	return row.toEntity(), nil
}

// ChatByIdentifier 根据标识串查找会话
func (s *ChatDB) ChatByIdentifier(ctx context.Context, identifier string) (*entity.Chat, error) {
	var row chatRow
	result := s.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT %s FROM chat c WHERE c.chat_identifier = ?", chatColumns), identifier).
		Scan(&row)
	if result.Error != nil {
		return nil, domainErrors.NewInternalErrorWithCause("chat lookup failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domainErrors.NewChatIdentNotFoundError(identifier)
	}
	return row.toEntity(), nil
}

// ListChats 列出全部会话
func (s *ChatDB) ListChats(ctx context.Context) ([]*entity.Chat, error) {
	var rows []chatRow
	result := s.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT %s FROM chat c ORDER BY c.ROWID", chatColumns)).
		Scan(&rows)
	if result.Error != nil {
		return nil, domainErrors.NewInternalErrorWithCause("chat listing failed", result.Error)
	}
	chats := make([]*entity.Chat, 0, len(rows))
	for _, row := range rows {
		chats = append(chats, row.toEntity())
	}
	return chats, nil
}

func (r chatRow) toEntity() *entity.Chat {
	return &entity.Chat{
		RowID:       r.RowID,
		GUID:        r.GUID,
		Identifier:  r.Identifier,
		DisplayName: r.DisplayName,
		Style:       r.Style,
	}
}

type messageRow struct {
	RowID                 int64   `gorm:"column:rowid"`
	GUID                  string  `gorm:"column:guid"`
	Text                  *string `gorm:"column:text"`
	AttributedBody        []byte  `gorm:"column:attributed_body"`
	DateSent              int64   `gorm:"column:date_sent"`
	DateRead              int64   `gorm:"column:date_read"`
	DateDelivered         int64   `gorm:"column:date_delivered"`
	DateEdited            int64   `gorm:"column:date_edited"`
	IsFromMe              int64   `gorm:"column:is_from_me"`
	SenderHandle          string  `gorm:"column:sender_handle"`
	ItemType              int64   `gorm:"column:item_type"`
	GroupActionType       int64   `gorm:"column:group_action_type"`
	AssociatedMessageType int64   `gorm:"column:associated_message_type"`
	AssociatedMessageGUID *string `gorm:"column:associated_message_guid"`
	AssociatedEmoji       *string `gorm:"column:associated_message_emoji"`
	BalloonBundleID       *string `gorm:"column:balloon_bundle_id"`
	ShareStatus           int64   `gorm:"column:share_status"`
	ShareDirection        *int64  `gorm:"column:share_direction"`
	OtherHandle           int64   `gorm:"column:other_handle"`
	GroupTitle            *string `gorm:"column:group_title"`
	NumAttachments        int64   `gorm:"column:num_attachments"`
	NumReplies            int64   `gorm:"column:num_replies"`
	ThreadOriginatorGUID  *string `gorm:"column:thread_originator_guid"`
}

const messagesForChatQuery = `
SELECT
	m.ROWID AS rowid,
	m.guid,
	m.text,
	m.attributedBody AS attributed_body,
	COALESCE(m.date, 0) AS date_sent,
	COALESCE(m.date_read, 0) AS date_read,
	COALESCE(m.date_delivered, 0) AS date_delivered,
	COALESCE(m.date_edited, 0) AS date_edited,
	m.is_from_me,
	COALESCE(h.id, '') AS sender_handle,
	COALESCE(m.item_type, 0) AS item_type,
	COALESCE(m.group_action_type, 0) AS group_action_type,
	COALESCE(m.associated_message_type, 0) AS associated_message_type,
	m.associated_message_guid,
	m.associated_message_emoji,
	m.balloon_bundle_id,
	COALESCE(m.share_status, 0) AS share_status,
	m.share_direction,
	COALESCE(m.other_handle, 0) AS other_handle,
	m.group_title,
	(SELECT COUNT(*) FROM message_attachment_join maj WHERE maj.message_id = m.ROWID) AS num_attachments,
	(SELECT COUNT(*) FROM message r WHERE r.thread_originator_guid = m.guid) AS num_replies,
	m.thread_originator_guid
FROM message m
JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
LEFT JOIN handle h ON h.ROWID = m.handle_id
WHERE cmj.chat_id = ?
ORDER BY m.date, m.ROWID`

// MessagesForChat 返回会话的全部消息, 按发送时间升序
func (s *ChatDB) MessagesForChat(ctx context.Context, chatID int64) ([]*entity.Message, error) {
	var rows []messageRow
	result := s.db.WithContext(ctx).Raw(messagesForChatQuery, chatID).Scan(&rows)
	if result.Error != nil {
		return nil, domainErrors.NewInternalErrorWithCause("message query failed", result.Error)
	}
	msgs := make([]*entity.Message, 0, len(rows))
	for i := range rows {
		msgs = append(msgs, rows[i].toEntity())
	}
	return msgs, nil
}

func (r *messageRow) toEntity() *entity.Message {
	var direction *bool
	if r.ShareDirection != nil {
		d := *r.ShareDirection != 0
		direction = &d
	}
	return &entity.Message{
		RowID:                 r.RowID,
		GUID:                  r.GUID,
		DateSent:              r.DateSent,
		DateRead:              r.DateRead,
		DateDelivered:         r.DateDelivered,
		DateEdited:            r.DateEdited,
		IsFromMe:              r.IsFromMe != 0,
		SenderHandle:          r.SenderHandle,
		Text:                  r.Text,
		AttributedBody:        r.AttributedBody,
		ItemType:              r.ItemType,
		GroupActionType:       r.GroupActionType,
		AssociatedMessageType: r.AssociatedMessageType,
		AssociatedMessageGUID: r.AssociatedMessageGUID,
		AssociatedEmoji:       r.AssociatedEmoji,
		BalloonBundleID:       r.BalloonBundleID,
		ShareStatus:           r.ShareStatus != 0,
		ShareDirection:        direction,
		OtherHandle:           r.OtherHandle,
		GroupTitle:            r.GroupTitle,
		NumAttachments:        r.NumAttachments,
		NumReplies:            r.NumReplies,
		ThreadOriginatorGUID:  r.ThreadOriginatorGUID,
	}
}

type attachmentRow struct {
	RowID        int64   `gorm:"column:rowid"`
	Filename     *string `gorm:"column:filename"`
	TransferName *string `gorm:"column:transfer_name"`
	MimeType     *string `gorm:"column:mime_type"`
	TotalBytes   int64   `gorm:"column:total_bytes"`
	IsSticker    int64   `gorm:"column:is_sticker"`
}

const attachmentsQuery = `
SELECT
	a.ROWID AS rowid,
	a.filename,
	a.transfer_name,
	a.mime_type,
	COALESCE(a.total_bytes, 0) AS total_bytes,
	COALESCE(a.is_sticker, 0) AS is_sticker
FROM attachment a
JOIN message_attachment_join maj ON maj.attachment_id = a.ROWID
WHERE maj.message_id = ?
ORDER BY a.ROWID`

// AttachmentsForMessage 返回消息的附件
func (s *ChatDB) AttachmentsForMessage(ctx context.Context, messageID int64) ([]*entity.Attachment, error) {
	var rows []attachmentRow
	result := s.db.WithContext(ctx).Raw(attachmentsQuery, messageID).Scan(&rows)
	if result.Error != nil {
		return nil, domainErrors.NewInternalErrorWithCause("attachment query failed", result.Error)
	}
	attachments := make([]*entity.Attachment, 0, len(rows))
	for _, row := range rows {
		attachments = append(attachments, &entity.Attachment{
			RowID:        row.RowID,
			MessageRowID: messageID,
			Filename:     deref(row.Filename),
			TransferName: deref(row.TransferName),
			MimeType:     deref(row.MimeType),
			TotalBytes:   row.TotalBytes,
			IsSticker:    row.IsSticker != 0,
		})
	}
	return attachments, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
