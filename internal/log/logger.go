package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

//DefaultLogFile is used when logs are not written to the console and no file was configured.
const DefaultLogFile = "backup.log"

//go:generate mockgen -destination=../../generated/mocks/logger.go -package=mocks github.com/Spectre3222/incremental-backup/internal/log Logger

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Sync() error
}

//New builds a JSON logger. If logToStd is true the logs are written to stderr,
//otherwise to logFile, which is rotated by size.
func New(lvl Level, logToStd bool, logFile string) (Logger, error) {
	var sink zapcore.WriteSyncer
	if logToStd {
		sink = zapcore.Lock(os.Stderr)
	} else {
		if logFile == "" {
			logFile = DefaultLogFile
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), sink, zap.NewAtomicLevelAt(lvl.zapLevel()))
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}

//Nop returns a logger that discards everything.
func Nop() Logger {
	return zap.NewNop()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "lvl",
		TimeKey:        "ts",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
