// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package logger

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var currentLevel atomic.Int32

var std = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelDebug,
}))

func init() {
	currentLevel.Store(int32(INFO))
}

func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

func enabled(level Level) bool {
	return level >= Level(currentLevel.Load())
}

// logC emits one record tagged with its originating component.
// Fields are flattened into slog attributes in a stable order.
func logC(level Level, component, msg string, fields map[string]interface{}) {
	if !enabled(level) {
		return
	}

	attrs := make([]any, 0, 2+2*len(fields))
	attrs = append(attrs, "component", component)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, normalizeField(fields[k]))
	}

	switch level {
	case DEBUG:
		std.Debug(msg, attrs...)
	case INFO:
		std.Info(msg, attrs...)
	case WARN:
		std.Warn(msg, attrs...)
	default:
		std.Error(msg, attrs...)
	}
}

func normalizeField(v interface{}) any {
	switch t := v.(type) {
	case string, bool, int, int32, int64, uint, uint64, float32, float64, error:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}

func DebugC(component, msg string) { logC(DEBUG, component, msg, nil) }
func InfoC(component, msg string)  { logC(INFO, component, msg, nil) }
func WarnC(component, msg string)  { logC(WARN, component, msg, nil) }
func ErrorC(component, msg string) { logC(ERROR, component, msg, nil) }

func DebugCF(component, msg string, fields map[string]interface{}) {
	logC(DEBUG, component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	logC(INFO, component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	logC(WARN, component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	logC(ERROR, component, msg, fields)
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}
