package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chatvault/chatvault/internal/domain/entity"
	"github.com/chatvault/chatvault/internal/domain/valueobject"
	apperrors "github.com/chatvault/chatvault/pkg/errors"
)

func strPtr(s string) *string { return &s }

// fakeStore serves a fixed dataset from memory.
type fakeStore struct {
	chats       []*entity.Chat
	messages    map[int64][]*entity.Message
	attachments map[int64][]*entity.Attachment
}

func (s *fakeStore) ChatByID(ctx context.Context, chatID int64) (*entity.Chat, error) {
	for _, c := range s.chats {
		if c.RowID == chatID {
			return c, nil
		}
	}
	return nil, apperrors.NewChatNotFoundError(chatID)
}

func (s *fakeStore) ChatByIdentifier(ctx context.Context, identifier string) (*entity.Chat, error) {
	for _, c := range s.chats {
		if c.Identifier == identifier {
			return c, nil
		}
	}
	return nil, apperrors.NewChatIdentNotFoundError(identifier)
}

func (s *fakeStore) ListChats(ctx context.Context) ([]*entity.Chat, error) {
	return s.chats, nil
}

func (s *fakeStore) MessagesForChat(ctx context.Context, chatID int64) ([]*entity.Message, error) {
	return s.messages[chatID], nil
}

func (s *fakeStore) AttachmentsForMessage(ctx context.Context, messageID int64) ([]*entity.Attachment, error) {
	return s.attachments[messageID], nil
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	d0 := time.Hour.Nanoseconds()
	parent := &entity.Message{
		RowID: 1, GUID: "A", Text: strPtr("Hello there"),
		SenderHandle: "+15551234567", DateSent: d0, NumReplies: 1,
	}
	reply := &entity.Message{
		RowID: 2, GUID: "B", Text: strPtr("Hi back"),
		IsFromMe: true, DateSent: d0 + 2,
		ThreadOriginatorGUID: strPtr("A"),
	}
	react := &entity.Message{
		RowID: 3, GUID: "R", SenderHandle: "+15559876543", DateSent: d0 + 3,
		AssociatedMessageType: 2000, AssociatedMessageGUID: strPtr("p:0/A"),
	}
	return &fakeStore{
		chats: []*entity.Chat{
			{RowID: 10, GUID: "iMessage;-;+15551234567", Identifier: "+15551234567", Style: 45},
		},
		messages: map[int64][]*entity.Message{
			10: {parent, reply, react},
		},
		attachments: map[int64][]*entity.Attachment{},
	}
}

func TestExportChat_WritesArtifacts(t *testing.T) {
	store := newFakeStore(t)
	exporter := NewExporter(store, nil, zap.NewNop())
	outDir := t.TempDir()

	result, err := exporter.ExportChat(context.Background(), ExportRequest{
		ChatID:    10,
		OutputDir: outDir,
		Config:    valueobject.ExportConfig{IncludeReactions: true},
	})
	if err != nil {
		t.Fatalf("ExportChat: %v", err)
	}

	if result.Messages != 3 || result.Groups != 1 {
		t.Errorf("kept %d messages in %d groups, want 3 in 1", result.Messages, result.Groups)
	}
	if result.RunID == "" {
		t.Error("empty run id")
	}

	md, err := os.ReadFile(result.MarkdownPath)
	if err != nil {
		t.Fatalf("reading markdown: %v", err)
	}
	for _, want := range []string{
		"### +15551234567 [",
		"Hello there",
		"[Reactions: +15559876543 ❤️]",
		"### me [",
		"> +15551234567 [",
		"Hi back",
	} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	html, err := os.ReadFile(result.HTMLPath)
	if err != nil {
		t.Fatalf("reading html: %v", err)
	}
	for _, want := range []string{
		`<div class="message other">`,
		`<div class="message self">`,
		"<blockquote>",
		"Hello there",
	} {
		if !strings.Contains(string(html), want) {
			t.Errorf("html missing %q", want)
		}
	}

	if result.DiagnosticsPath != "" {
		t.Errorf("diagnostics sidecar written without failures: %s", result.DiagnosticsPath)
	}
}

func TestExportChat_SkipHTML(t *testing.T) {
	store := newFakeStore(t)
	exporter := NewExporter(store, nil, zap.NewNop())
	outDir := t.TempDir()

	result, err := exporter.ExportChat(context.Background(), ExportRequest{
		ChatIdentifier: "+15551234567",
		OutputDir:      outDir,
		SkipHTML:       true,
	})
	if err != nil {
		t.Fatalf("ExportChat: %v", err)
	}
	if result.HTMLPath != "" {
		t.Errorf("html path set with SkipHTML: %s", result.HTMLPath)
	}
	if _, err := os.Stat(strings.TrimSuffix(result.MarkdownPath, ".md") + ".html"); !os.IsNotExist(err) {
		t.Error("html file written despite SkipHTML")
	}
}

func TestExportChat_NoOutputDirKeepsInMemory(t *testing.T) {
	store := newFakeStore(t)
	exporter := NewExporter(store, nil, zap.NewNop())

	result, err := exporter.ExportChat(context.Background(), ExportRequest{ChatID: 10})
	if err != nil {
		t.Fatalf("ExportChat: %v", err)
	}
	if result.Markdown == "" {
		t.Error("no in-memory markdown")
	}
	if result.MarkdownPath != "" || result.HTMLPath != "" {
		t.Error("paths set without an output dir")
	}
}

func TestExportChat_NotFoundErrors(t *testing.T) {
	store := newFakeStore(t)
	exporter := NewExporter(store, nil, zap.NewNop())

	_, err := exporter.ExportChat(context.Background(), ExportRequest{ChatID: 999})
	if !apperrors.IsChatNotFound(err) {
		t.Errorf("ChatID miss: err = %v, want chat-not-found", err)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeChatNotFound {
		t.Errorf("ChatID miss: code = %v, want %v", appErr, apperrors.CodeChatNotFound)
	}

	_, err = exporter.ExportChat(context.Background(), ExportRequest{ChatIdentifier: "+10000000000"})
	if !apperrors.IsChatNotFound(err) {
		t.Errorf("identifier miss: err = %v, want chat-not-found", err)
	}
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeChatIdentNotFound {
		t.Errorf("identifier miss: code = %v, want %v", appErr, apperrors.CodeChatIdentNotFound)
	}
}

func TestExportChat_CopyAttachments(t *testing.T) {
	srcDir := t.TempDir()
	srcFile := filepath.Join(srcDir, "IMG_1.jpeg")
	if err := os.WriteFile(srcFile, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := newFakeStore(t)
	store.messages[10][0].NumAttachments = 2
	store.attachments[1] = []*entity.Attachment{
		{Filename: srcFile, TransferName: "IMG_1.jpeg"},
		{Filename: filepath.Join(srcDir, "missing.mov"), TransferName: "missing.mov"},
	}

	exporter := NewExporter(store, nil, zap.NewNop())
	outDir := t.TempDir()

	result, err := exporter.ExportChat(context.Background(), ExportRequest{
		ChatID:          10,
		OutputDir:       outDir,
		Config:          valueobject.ExportConfig{AttachmentDir: "attachments"},
		CopyAttachments: true,
	})
	if err != nil {
		t.Fatalf("ExportChat: %v", err)
	}

	copied, err := os.ReadFile(filepath.Join(outDir, "attachments", "IMG_1.jpeg"))
	if err != nil || string(copied) != "jpeg bytes" {
		t.Errorf("copied attachment = %q, %v; want source bytes", copied, err)
	}

	if len(result.Failures) != 1 || result.Failures[0].Attachment != "missing.mov" {
		t.Fatalf("failures = %+v, want one entry for missing.mov", result.Failures)
	}
	if result.DiagnosticsPath == "" {
		t.Fatal("no diagnostics sidecar for the failed copy")
	}
	sidecar, err := os.ReadFile(result.DiagnosticsPath)
	if err != nil {
		t.Fatalf("reading diagnostics: %v", err)
	}
	for _, want := range []string{"run_id:", "attachment_failures:", "missing.mov"} {
		if !strings.Contains(string(sidecar), want) {
			t.Errorf("diagnostics missing %q:\n%s", want, sidecar)
		}
	}
}

func TestExportBaseName(t *testing.T) {
	tests := []struct {
		chat *entity.Chat
		want string
	}{
		{&entity.Chat{DisplayName: "Weekend Plans"}, "Weekend_Plans"},
		{&entity.Chat{Identifier: "+15551234567"}, "+15551234567"},
		{&entity.Chat{Identifier: "a/b:c"}, "a-b-c"},
		{&entity.Chat{RowID: 7}, "chat-7"},
	}
	for _, tt := range tests {
		if got := exportBaseName(tt.chat); got != tt.want {
			t.Errorf("exportBaseName(%+v) = %q, want %q", tt.chat, got, tt.want)
		}
	}
}
