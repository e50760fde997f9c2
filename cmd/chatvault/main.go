package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatvault/chatvault/internal/application"
	"github.com/chatvault/chatvault/internal/domain/repository"
	"github.com/chatvault/chatvault/internal/domain/valueobject"
	"github.com/chatvault/chatvault/internal/infrastructure/config"
	"github.com/chatvault/chatvault/internal/infrastructure/logger"
	"github.com/chatvault/chatvault/internal/infrastructure/persistence"
	"github.com/chatvault/chatvault/internal/interfaces/cli"
)

const (
	cliVersion = "0.1.0"
	cliName    = "chatvault"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   cliName,
		Short: "chatvault — 只读导出消息数据库为 markdown/HTML",
		Long:  "chatvault exports conversations from a Messages database into portable markdown and styled HTML documents.",
	}

	rootCmd.PersistentFlags().String("db", "", "source database path (overrides config)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "导出单个会话",
		RunE:  runExport,
	}
	exportCmd.Flags().Int64("chat-id", 0, "chat rowid to export")
	exportCmd.Flags().String("chat", "", "chat identifier (phone, email or group id) to export")
	exportCmd.Flags().StringP("out", "o", "", "output directory")
	exportCmd.Flags().String("attachment-dir", "", "attachment directory, relative to the output directory")
	exportCmd.Flags().Bool("reactions", true, "include reactions")
	exportCmd.Flags().Bool("system-messages", false, "include announcements and app messages")
	exportCmd.Flags().Bool("sanitize-names", false, "sanitize rendered sender names")
	exportCmd.Flags().Int("max-quote", 0, "max quoted parent text length, 0 = unlimited")
	exportCmd.Flags().String("from", "", "only messages sent on or after this date (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "only messages sent on or before this date (YYYY-MM-DD)")
	exportCmd.Flags().Int("limit", 0, "keep only the earliest N messages, 0 = no cap")
	exportCmd.Flags().Bool("threads-only", false, "keep only messages that are replies or have replies")
	exportCmd.Flags().String("thread", "", "export a single reply thread by originator guid")
	exportCmd.Flags().Bool("no-html", false, "skip the companion HTML document")
	exportCmd.Flags().Bool("no-copy", false, "skip attachment materialization")
	exportCmd.Flags().Bool("preview", false, "render the markdown to the terminal")
	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "chats",
		Short: "列出全部会话",
		RunE:  runChats,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", cliName, cliVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags := cmd.Flags()
	chatID, _ := flags.GetInt64("chat-id")
	chatIdent, _ := flags.GetString("chat")
	if chatID == 0 && chatIdent == "" {
		return fmt.Errorf("one of --chat-id or --chat is required")
	}

	exportCfg := valueobject.ExportConfig{
		AttachmentDir:         cfg.Export.AttachmentDir,
		IncludeReactions:      cfg.Export.IncludeReactions,
		IncludeSystemMessages: cfg.Export.IncludeSystemMessages,
		SanitizeNames:         cfg.Export.SanitizeNames,
		MaxQuoteLength:        cfg.Export.MaxQuoteLength,
	}
	if flags.Changed("attachment-dir") {
		exportCfg.AttachmentDir, _ = flags.GetString("attachment-dir")
	}
	if flags.Changed("reactions") {
		exportCfg.IncludeReactions, _ = flags.GetBool("reactions")
	}
	if flags.Changed("system-messages") {
		exportCfg.IncludeSystemMessages, _ = flags.GetBool("system-messages")
	}
	if flags.Changed("sanitize-names") {
		exportCfg.SanitizeNames, _ = flags.GetBool("sanitize-names")
	}
	if flags.Changed("max-quote") {
		exportCfg.MaxQuoteLength, _ = flags.GetInt("max-quote")
	}
	exportCfg.MessageLimit, _ = flags.GetInt("limit")
	exportCfg.ThreadsOnly, _ = flags.GetBool("threads-only")
	exportCfg.ThreadGUID, _ = flags.GetString("thread")

	if from, _ := flags.GetString("from"); from != "" {
		t, err := parseDay(from, false)
		if err != nil {
			return err
		}
		exportCfg.From = &t
	}
	if to, _ := flags.GetString("to"); to != "" {
		t, err := parseDay(to, true)
		if err != nil {
			return err
		}
		exportCfg.To = &t
	}

	outDir := cfg.Export.OutputDir
	if flags.Changed("out") {
		outDir, _ = flags.GetString("out")
	}
	skipHTML, _ := flags.GetBool("no-html")
	noCopy, _ := flags.GetBool("no-copy")
	preview, _ := flags.GetBool("preview")

	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	exporter := application.NewExporter(store, contactsResolver(cfg.Contacts), log)
	result, err := exporter.ExportChat(ctx, application.ExportRequest{
		ChatID:          chatID,
		ChatIdentifier:  chatIdent,
		OutputDir:       outDir,
		Config:          exportCfg,
		SkipHTML:        skipHTML,
		CopyAttachments: cfg.Export.CopyAttachments && !noCopy,
	})
	if err != nil {
		log.Error("Export failed", zap.Error(err))
		return err
	}

	if preview {
		fmt.Println(cli.NewPreviewer(100).Render(result.Markdown))
	}
	fmt.Printf("Exported %d messages in %d groups to %s\n", result.Messages, result.Groups, result.MarkdownPath)
	if len(result.Failures) > 0 {
		fmt.Printf("%d attachment(s) failed to copy, see %s\n", len(result.Failures), result.DiagnosticsPath)
	}
	return nil
}

func runChats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	chats, err := store.ListChats(cmd.Context())
	if err != nil {
		return err
	}
	for _, chat := range chats {
		kind := "direct"
		if chat.IsGroup() {
			kind = "group"
		}
		fmt.Printf("%6d  %-8s %-40s %s\n", chat.RowID, kind, chat.Identifier, chat.DisplayName)
	}
	return nil
}

func openStore(cmd *cobra.Command, cfg *config.Config) (*persistence.ChatDB, error) {
	path := cfg.Database.Path
	if flag, _ := cmd.Flags().GetString("db"); flag != "" {
		path = flag
	}
	return persistence.Open(path)
}

// contactsResolver adapts the config contacts table to the name-resolution
// interface. Returns nil when no contacts are configured so the renderer
// falls back to raw handles.
func contactsResolver(contacts map[string]string) repository.NameResolver {
	if len(contacts) == 0 {
		return nil
	}
	return repository.NameResolverFunc(func(ctx context.Context, identifier string) (string, bool) {
		name, found := contacts[identifier]
		return name, found
	})
}

// parseDay parses a YYYY-MM-DD date in local time. End dates extend to the
// last instant of the day so the range stays inclusive.
func parseDay(s string, endOfDay bool) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
