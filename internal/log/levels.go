package log

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

func (l Level) IsValid() bool {
	_, ok := levelsMapping[l.normalized()]
	return ok
}

func (l Level) normalized() Level {
	return Level(strings.ToLower(strings.TrimSpace(string(l))))
}

func (l Level) zapLevel() zapcore.Level {
	if lvl, ok := levelsMapping[l.normalized()]; ok {
		return lvl
	}
	return zap.InfoLevel
}

var levelsMapping = map[Level]zapcore.Level{
	DebugLevel: zap.DebugLevel,
	InfoLevel:  zap.InfoLevel,
	WarnLevel:  zap.WarnLevel,
	ErrorLevel: zap.ErrorLevel,
}
