package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// NewLogger 创建新的日志实例
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	format := cfg.Format
	if format == "" {
		format = "console"
	}

	var encoderConfig zapcore.EncoderConfig
	if format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	output := cfg.OutputPath
	if output == "" {
		// A CLI tool logs to stderr so stdout stays clean for --preview.
		output = "stderr"
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      format == "console",
		Encoding:         format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
