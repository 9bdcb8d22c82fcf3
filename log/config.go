package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogMaxSize = 300 // MB

// FileLogConfig serializes file log related config in yaml.
type FileLogConfig struct {
	LogPath    string `yaml:"path" mapstructure:"path"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxDays    int    `yaml:"max_days" mapstructure:"max_days"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// Config serializes log related config in yaml.
type Config struct {
	Level               string         `yaml:"level" mapstructure:"level"`
	Format              string         `yaml:"format" mapstructure:"format"` // text or json
	Stdout              bool           `yaml:"stdout" mapstructure:"stdout"`
	DisableTimestamp    bool           `yaml:"disable_timestamp" mapstructure:"disable_timestamp"`
	DisableCaller       bool           `yaml:"disable_caller" mapstructure:"disable_caller"`
	DisableStacktrace   bool           `yaml:"disable_stacktrace" mapstructure:"disable_stacktrace"`
	DisableErrorVerbose bool           `yaml:"disable_error_verbose" mapstructure:"disable_error_verbose"`
	File                *FileLogConfig `yaml:"file" mapstructure:"file"`
	Handlers            []zapcore.Core `yaml:"-" mapstructure:"-"`
}

// ZapProperties records some information about zap.
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

func newEncoderConfig(cfg *Config) zapcore.EncoderConfig {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "name",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     DefaultTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.DisableTimestamp {
		encCfg.TimeKey = ""
	}
	return encCfg
}

func newEncoder(cfg *Config) zapcore.Encoder {
	encCfg := newEncoderConfig(cfg)
	if cfg.Format == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

// DefaultTimeEncoder serializes time.Time to a human-readable formatted string
var DefaultTimeEncoder = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000")

func (cfg *Config) buildOptions(errSink zapcore.WriteSyncer) []zap.Option {
	opts := []zap.Option{zap.ErrorOutput(errSink)}
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return opts
}
