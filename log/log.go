package log

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _globalL, _globalP, _globalS atomic.Value

func init() {
	l, p := newStdLogger()
	ReplaceGlobals(l, p)
}

// InitLogger builds a zap logger writing to stdout and/or a rotated file.
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	var outputs []zapcore.WriteSyncer
	if cfg.File != nil && len(cfg.File.LogPath) > 0 {
		lg, err := initFileLog(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout || len(outputs) == 0 {
		stdOut, _, err := zap.Open("stdout")
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, stdOut)
	}
	lg, r, err := InitLoggerWithWriteSyncer(cfg, zap.CombineWriteSyncers(outputs...), opts...)
	if err != nil {
		return nil, nil, err
	}
	// package level Info/Warn/... add one frame
	return lg.WithOptions(zap.AddCallerSkip(1)), r, nil
}

// InitLoggerWithWriteSyncer initializes a zap logger with specified write syncer.
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level := zap.NewAtomicLevel()
	levelText := cfg.Level
	if levelText == "" {
		levelText = "info"
	}
	if err := level.UnmarshalText([]byte(levelText)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	core := zapcore.NewCore(newEncoder(cfg), output, level)
	if len(cfg.Handlers) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, cfg.Handlers...)...)
	}
	opts = append(cfg.buildOptions(output), opts...)
	lg := zap.New(core, opts...)
	return lg, &ZapProperties{Core: core, Syncer: output, Level: level}, nil
}

// initFileLog initializes file based logging options.
func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	if st, err := os.Stat(cfg.LogPath); err == nil && st.IsDir() {
		return nil, errors.New("can't use directory as log file name")
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

func newStdLogger() (*zap.Logger, *ZapProperties) {
	conf := &Config{Level: "debug", Stdout: true, DisableErrorVerbose: true}
	lg, r, _ := InitLogger(conf, zap.OnFatal(zapcore.WriteThenPanic))
	return lg, r
}

// L returns the global Logger, which can be reconfigured with ReplaceGlobals.
// It's safe for concurrent use.
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

// ctxL is the global logger without the extra frame of the package level functions.
func ctxL() *zap.Logger {
	return L().WithOptions(zap.AddCallerSkip(-1))
}

// S returns the global SugaredLogger.
func S() *zap.SugaredLogger {
	return _globalS.Load().(*zap.SugaredLogger)
}

// ReplaceGlobals replaces the global Logger and SugaredLogger.
// It's safe for concurrent use.
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalS.Store(logger.Sugar())
	_globalP.Store(props)
}

// Sync flushes any buffered log entries.
func Sync() error {
	if err := L().Sync(); err != nil {
		return err
	}
	return S().Sync()
}

func Level() zap.AtomicLevel {
	return _globalP.Load().(*ZapProperties).Level
}

// SetupLogger is used to initialize the log with config.
func SetupLogger(cfg *Config) {
	logger, p, err := InitLogger(cfg)
	if err != nil {
		Fatal("initialize logger error", zap.Error(err))
	}
	ReplaceGlobals(logger, p)
	if cfg.File != nil && len(cfg.File.LogPath) > 0 {
		Info("Log To", zap.String("path", cfg.File.LogPath))
	}
}

func Setup(debug bool, logFile string, handlers ...zapcore.Core) {
	var level = "info"
	if debug {
		level = "debug"
	}
	var file *FileLogConfig
	if len(logFile) > 0 {
		file = &FileLogConfig{LogPath: logFile}
	}
	SetupLogger(&Config{
		Stdout:   true,
		Format:   "text",
		Level:    level,
		File:     file,
		Handlers: handlers,
	})
}
