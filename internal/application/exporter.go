// Package application wires the export pipeline: fetch rows, classify,
// filter and group, render, write artifacts.
package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chatvault/chatvault/internal/domain/entity"
	"github.com/chatvault/chatvault/internal/domain/repository"
	"github.com/chatvault/chatvault/internal/domain/service"
	"github.com/chatvault/chatvault/internal/domain/valueobject"
	"github.com/chatvault/chatvault/internal/infrastructure/streamtyped"
	"github.com/chatvault/chatvault/internal/interfaces/render"
	"github.com/chatvault/chatvault/pkg/safego"
)

// copyWorkers bounds concurrent attachment copies.
const copyWorkers = 4

// Exporter 导出用例
type Exporter struct {
	store    repository.ChatStore
	resolver repository.NameResolver
	content  *service.ContentResolver
	logger   *zap.Logger
}

// NewExporter 创建导出器; resolver 可为 nil
func NewExporter(store repository.ChatStore, resolver repository.NameResolver, logger *zap.Logger) *Exporter {
	return &Exporter{
		store:    store,
		resolver: resolver,
		content:  service.NewContentResolver(streamtyped.NewDecoder()),
		logger:   logger,
	}
}

// ExportRequest 单次导出请求
type ExportRequest struct {
	// Exactly one of ChatID / ChatIdentifier selects the chat.
	ChatID         int64
	ChatIdentifier string

	OutputDir string
	Config    valueobject.ExportConfig

	// SkipHTML suppresses the companion styled document.
	SkipHTML bool
	// CopyAttachments materializes attachment files into the attachment
	// directory under OutputDir.
	CopyAttachments bool
}

// AttachmentFailure is one sidecar diagnostic entry.
type AttachmentFailure struct {
	Attachment string `yaml:"attachment"`
	Source     string `yaml:"source"`
	Error      string `yaml:"error"`
}

type diagnosticsFile struct {
	RunID    string              `yaml:"run_id"`
	Chat     string              `yaml:"chat"`
	Failures []AttachmentFailure `yaml:"attachment_failures"`
}

// ExportResult 导出结果
type ExportResult struct {
	RunID           string
	Chat            *entity.Chat
	Markdown        string
	MarkdownPath    string
	HTMLPath        string
	DiagnosticsPath string
	Messages        int
	Groups          int
	Failures        []AttachmentFailure
}

// ExportChat runs the pipeline for one chat and writes the markdown
// document, the optional HTML companion, and a diagnostics sidecar when
// attachment copies fail. Chat lookup failures are fatal to the call;
// everything downstream degrades per message instead of aborting.
func (e *Exporter) ExportChat(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID))

	chat, err := e.lookupChat(ctx, req)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("chat", chat.Identifier))

	msgs, err := e.store.MessagesForChat(ctx, chat.RowID)
	if err != nil {
		return nil, err
	}

	filtered := service.FilterMessages(msgs, req.Config)
	groups := service.GroupThreads(filtered)
	log.Info("Filtered messages",
		zap.Int("total", len(msgs)),
		zap.Int("kept", len(filtered)),
		zap.Int("groups", len(groups)),
	)

	attachments := e.fetchAttachments(ctx, filtered, log)

	renderer := render.NewMarkdownRenderer(req.Config, e.content, e.resolver)
	markdown := renderer.Render(ctx, groups, attachments)

	result := &ExportResult{
		RunID:    runID,
		Chat:     chat,
		Markdown: markdown,
		Messages: len(filtered),
		Groups:   len(groups),
	}

	if req.OutputDir != "" {
		if err := e.writeArtifacts(req, chat, markdown, result, runID, attachments, log); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Exporter) lookupChat(ctx context.Context, req ExportRequest) (*entity.Chat, error) {
	if req.ChatIdentifier != "" {
		return e.store.ChatByIdentifier(ctx, req.ChatIdentifier)
	}
	return e.store.ChatByID(ctx, req.ChatID)
}

// fetchAttachments loads attachment metadata for the filtered messages.
// A failed lookup degrades to "no attachments" for that message.
func (e *Exporter) fetchAttachments(ctx context.Context, msgs []*entity.Message, log *zap.Logger) map[int64][]*entity.Attachment {
	attachments := make(map[int64][]*entity.Attachment)
	for _, m := range msgs {
		if m.NumAttachments == 0 {
			continue
		}
		atts, err := e.store.AttachmentsForMessage(ctx, m.RowID)
		if err != nil {
			log.Warn("Attachment metadata lookup failed",
				zap.Int64("message", m.RowID),
				zap.Error(err),
			)
			continue
		}
		attachments[m.RowID] = atts
	}
	return attachments
}

func (e *Exporter) writeArtifacts(
	req ExportRequest,
	chat *entity.Chat,
	markdown string,
	result *ExportResult,
	runID string,
	attachments map[int64][]*entity.Attachment,
	log *zap.Logger,
) error {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	base := exportBaseName(chat)
	result.MarkdownPath = filepath.Join(req.OutputDir, base+".md")
	if err := os.WriteFile(result.MarkdownPath, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	log.Info("Wrote markdown document", zap.String("path", result.MarkdownPath))

	if !req.SkipHTML {
		tripper := render.NewHTMLRoundTripper(chat.Name())
		result.HTMLPath = filepath.Join(req.OutputDir, base+".html")
		if err := os.WriteFile(result.HTMLPath, []byte(tripper.RoundTrip(markdown)), 0o644); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
		log.Info("Wrote HTML document", zap.String("path", result.HTMLPath))
	}

	if req.CopyAttachments {
		result.Failures = e.copyAttachments(req, attachments, log)
		if len(result.Failures) > 0 {
			result.DiagnosticsPath = filepath.Join(req.OutputDir, base+".diagnostics.yaml")
			e.writeDiagnostics(result.DiagnosticsPath, runID, chat, result.Failures, log)
		}
	}
	return nil
}

// copyAttachments materializes attachment files on a bounded worker pool.
// Failures never abort the export; they come back as sidecar entries.
func (e *Exporter) copyAttachments(req ExportRequest, attachments map[int64][]*entity.Attachment, log *zap.Logger) []AttachmentFailure {
	dstDir := filepath.Join(req.OutputDir, req.Config.AttachmentDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return []AttachmentFailure{{Attachment: req.Config.AttachmentDir, Error: err.Error()}}
	}

	jobs := make(chan *entity.Attachment)
	var mu sync.Mutex
	var failures []AttachmentFailure
	var wg sync.WaitGroup

	for i := 0; i < copyWorkers; i++ {
		safego.GoWait(log, &wg, "attachment-copy", func() {
			for att := range jobs {
				if err := copyFile(att.Filename, filepath.Join(dstDir, att.Name())); err != nil {
					mu.Lock()
					failures = append(failures, AttachmentFailure{
						Attachment: att.Name(),
						Source:     att.Filename,
						Error:      err.Error(),
					})
					mu.Unlock()
				}
			}
		})
	}

	for _, atts := range attachments {
		for _, att := range atts {
			if att.Filename == "" {
				continue
			}
			jobs <- att
		}
	}
	close(jobs)
	wg.Wait()

	if len(failures) > 0 {
		log.Warn("Some attachments failed to copy", zap.Int("failures", len(failures)))
	}
	return failures
}

func (e *Exporter) writeDiagnostics(path, runID string, chat *entity.Chat, failures []AttachmentFailure, log *zap.Logger) {
	data, err := yaml.Marshal(diagnosticsFile{
		RunID:    runID,
		Chat:     chat.Identifier,
		Failures: failures,
	})
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		// Diagnostics are best-effort; the export itself already succeeded.
		log.Warn("Failed to write diagnostics sidecar", zap.Error(err))
		return
	}
	log.Info("Wrote diagnostics sidecar", zap.String("path", path))
}

func copyFile(src, dst string) error {
	if strings.HasPrefix(src, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			src = filepath.Join(home, src[2:])
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// exportBaseName derives the output file stem from the chat, keeping it
// filesystem-safe.
func exportBaseName(chat *entity.Chat) string {
	name := chat.Name()
	if name == "" {
		name = fmt.Sprintf("chat-%d", chat.RowID)
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '/' || r == '\\' || r == ':':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
