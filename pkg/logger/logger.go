// Package logger builds the zap logger shared by every service.
//
// Events go to stdout as JSON.  When a file path is configured the same
// events are also written to a lumberjack-rotated file.
package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger for the given level ("debug", "info", "warn",
// "error"). An unknown level falls back to info. The logger is installed as
// the process-wide default so zap.S() works after start-up.
func New(service, level, file string) *zap.SugaredLogger {
	lvl := zap.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zap.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(os.Stdout), lvl),
	}
	if file != "" {
		sink := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // MB
			MaxBackups: 7,
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), lvl))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).
		With(zap.String("service", service)).
		Sugar()
	zap.ReplaceGlobals(z.Desugar())
	return z
}

// Nop returns a logger that discards everything. Used as the default when a
// component is built without one.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
