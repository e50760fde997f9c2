package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Database DatabaseConfig    `mapstructure:"database"`
	Export   ExportConfig      `mapstructure:"export"`
	Contacts map[string]string `mapstructure:"contacts"` // handle → display name
	Log      LogConfig         `mapstructure:"log"`
}

// DatabaseConfig 源数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig 导出默认值, 可被命令行覆盖
type ExportConfig struct {
	OutputDir             string `mapstructure:"output_dir"`
	AttachmentDir         string `mapstructure:"attachment_dir"`
	IncludeReactions      bool   `mapstructure:"include_reactions"`
	IncludeSystemMessages bool   `mapstructure:"include_system_messages"`
	SanitizeNames         bool   `mapstructure:"sanitize_names"`
	MaxQuoteLength        int    `mapstructure:"max_quote_length"`
	CopyAttachments       bool   `mapstructure:"copy_attachments"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 加载配置
//
// 优先级 (低 → 高): 默认值 → 全局 ~/.chatvault/ → 项目本地 → 环境变量
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("chatvault")
	v.SetConfigType("yaml")

	globalDir := filepath.Join(os.Getenv("HOME"), ".chatvault")
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	}

	// 项目本地配置叠加
	if _, err := os.Stat("chatvault.yaml"); err == nil {
		local := viper.New()
		local.SetConfigFile("chatvault.yaml")
		if err := local.ReadInConfig(); err == nil {
			_ = v.MergeConfigMap(local.AllSettings())
		}
	}

	v.SetEnvPrefix("CHATVAULT")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults 设置默认配置
func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("database.path", filepath.Join(home, "Library", "Messages", "chat.db"))

	v.SetDefault("export.output_dir", "export")
	v.SetDefault("export.attachment_dir", "attachments")
	v.SetDefault("export.include_reactions", true)
	v.SetDefault("export.include_system_messages", false)
	v.SetDefault("export.sanitize_names", false)
	v.SetDefault("export.max_quote_length", 80)
	v.SetDefault("export.copy_attachments", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
