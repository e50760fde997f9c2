package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/chatvault/chatvault/pkg/errors"
)

// schema is the subset of the source database the store reads from.
var schema = []string{
	`CREATE TABLE chat (
		ROWID INTEGER PRIMARY KEY,
		guid TEXT,
		chat_identifier TEXT,
		display_name TEXT,
		style INTEGER
	)`,
	`CREATE TABLE handle (
		ROWID INTEGER PRIMARY KEY,
		id TEXT,
		service TEXT
	)`,
	`CREATE TABLE message (
		ROWID INTEGER PRIMARY KEY,
		guid TEXT,
		text TEXT,
		attributedBody BLOB,
		date INTEGER,
		date_read INTEGER,
		date_delivered INTEGER,
		date_edited INTEGER,
		is_from_me INTEGER,
		handle_id INTEGER,
		item_type INTEGER,
		group_action_type INTEGER,
		associated_message_type INTEGER,
		associated_message_guid TEXT,
		associated_message_emoji TEXT,
		balloon_bundle_id TEXT,
		share_status INTEGER,
		share_direction INTEGER,
		other_handle INTEGER,
		group_title TEXT,
		thread_originator_guid TEXT
	)`,
	`CREATE TABLE chat_message_join (
		chat_id INTEGER,
		message_id INTEGER
	)`,
	`CREATE TABLE attachment (
		ROWID INTEGER PRIMARY KEY,
		filename TEXT,
		transfer_name TEXT,
		mime_type TEXT,
		total_bytes INTEGER,
		is_sticker INTEGER
	)`,
	`CREATE TABLE message_attachment_join (
		message_id INTEGER,
		attachment_id INTEGER
	)`,
}

func newTestStore(t *testing.T) *ChatDB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("creating schema: %v", err)
		}
	}
	return NewChatDB(db)
}

func seedConversation(t *testing.T, store *ChatDB) {
	t.Helper()
	seed := []string{
		`INSERT INTO chat VALUES (1, 'iMessage;-;+15551234567', '+15551234567', NULL, 45)`,
		`INSERT INTO chat VALUES (2, 'chat0001', 'chat0001', 'Weekend Plans', 43)`,
		`INSERT INTO handle VALUES (1, '+15551234567', 'iMessage')`,
		// Inserted out of date order to exercise the ORDER BY.
		`INSERT INTO message (ROWID, guid, text, date, is_from_me, handle_id,
			item_type, group_action_type, associated_message_type, share_status)
			VALUES (2, 'B', 'second', 200, 1, 0, 0, 0, 0, 0)`,
		`INSERT INTO message (ROWID, guid, text, date, is_from_me, handle_id,
			item_type, group_action_type, associated_message_type, share_status,
			thread_originator_guid)
			VALUES (3, 'C', 'a reply', 300, 0, 1, 0, 0, 0, 0, 'A')`,
		`INSERT INTO message (ROWID, guid, text, date, is_from_me, handle_id,
			item_type, group_action_type, associated_message_type, share_status)
			VALUES (1, 'A', 'first', 100, 0, 1, 0, 0, 0, 0)`,
		`INSERT INTO chat_message_join VALUES (1, 1), (1, 2), (1, 3)`,
		`INSERT INTO attachment VALUES (1, '~/Library/att/IMG_1.jpeg', 'IMG_1.jpeg', 'image/jpeg', 1024, 0)`,
		`INSERT INTO attachment VALUES (2, '~/Library/att/st.png', 'st.png', 'image/png', 99, 1)`,
		`INSERT INTO message_attachment_join VALUES (1, 1), (1, 2)`,
	}
	for _, stmt := range seed {
		if err := store.db.Exec(stmt).Error; err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
}

func TestChatLookup(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)
	ctx := context.Background()

	chat, err := store.ChatByID(ctx, 1)
	if err != nil {
		t.Fatalf("ChatByID: %v", err)
	}
	if chat.Identifier != "+15551234567" || chat.IsGroup() {
		t.Errorf("chat 1 = %+v, want 1:1 with identifier", chat)
	}
	if chat.DisplayName != "" {
		t.Errorf("NULL display name scanned as %q, want empty", chat.DisplayName)
	}

	chat, err = store.ChatByIdentifier(ctx, "chat0001")
	if err != nil {
		t.Fatalf("ChatByIdentifier: %v", err)
	}
	if chat.Name() != "Weekend Plans" || !chat.IsGroup() {
		t.Errorf("chat0001 = %+v, want named group", chat)
	}
}

func TestChatLookup_NotFoundCodes(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)
	ctx := context.Background()

	_, err := store.ChatByID(ctx, 99)
	if !apperrors.IsChatNotFound(err) {
		t.Errorf("ChatByID(99): err = %v, want chat-not-found", err)
	}

	_, err = store.ChatByIdentifier(ctx, "nobody@example.com")
	if !apperrors.IsChatNotFound(err) {
		t.Errorf("ChatByIdentifier miss: err = %v, want chat-not-found", err)
	}
}

func TestListChats(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)

	chats, err := store.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 || chats[0].RowID != 1 || chats[1].RowID != 2 {
		t.Fatalf("chats = %+v, want both rows in rowid order", chats)
	}
}

func TestMessagesForChat(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)

	msgs, err := store.MessagesForChat(context.Background(), 1)
	if err != nil {
		t.Fatalf("MessagesForChat: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}

	// Sorted by date despite insertion order.
	for i, want := range []string{"A", "B", "C"} {
		if msgs[i].GUID != want {
			t.Errorf("position %d: guid %s, want %s", i, msgs[i].GUID, want)
		}
	}

	first := msgs[0]
	if first.IsFromMe || first.SenderHandle != "+15551234567" {
		t.Errorf("message A sender = (%v, %q), want other party", first.IsFromMe, first.SenderHandle)
	}
	if first.NumAttachments != 2 {
		t.Errorf("message A attachments = %d, want 2", first.NumAttachments)
	}
	if first.NumReplies != 1 {
		t.Errorf("message A replies = %d, want 1", first.NumReplies)
	}

	second := msgs[1]
	if !second.IsFromMe || second.SenderHandle != "" {
		t.Errorf("message B sender = (%v, %q), want me", second.IsFromMe, second.SenderHandle)
	}

	third := msgs[2]
	if !third.IsReply() || *third.ThreadOriginatorGUID != "A" {
		t.Errorf("message C = %+v, want reply anchored to A", third)
	}

	// Unknown chat yields an empty slice, not an error.
	msgs, err = store.MessagesForChat(context.Background(), 99)
	if err != nil || len(msgs) != 0 {
		t.Errorf("unknown chat: got %d messages, err %v; want none", len(msgs), err)
	}
}

func TestAttachmentsForMessage(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)

	atts, err := store.AttachmentsForMessage(context.Background(), 1)
	if err != nil {
		t.Fatalf("AttachmentsForMessage: %v", err)
	}
	if len(atts) != 2 {
		t.Fatalf("got %d attachments, want 2", len(atts))
	}
	if atts[0].Name() != "IMG_1.jpeg" || atts[0].MessageRowID != 1 {
		t.Errorf("attachment 1 = %+v, want IMG_1.jpeg on message 1", atts[0])
	}
	if !atts[1].IsSticker {
		t.Error("attachment 2 not flagged as sticker")
	}

	atts, err = store.AttachmentsForMessage(context.Background(), 99)
	if err != nil || len(atts) != 0 {
		t.Errorf("unknown message: got %d attachments, err %v; want none", len(atts), err)
	}
}
