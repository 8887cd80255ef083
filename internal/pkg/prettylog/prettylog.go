// Package prettylog renders zap entries in a consola-style single line for
// development terminals: icon, message, key=value fields, inter-log delta.
package prettylog

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset   = "\033[0m"
	ansiBlack   = "\033[30m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
	ansiBgRed   = "\033[41m"
)

// HintKey is a special zap field key that overrides the display icon.
const HintKey = "_pl"

const (
	HintSuccess = "success"
	HintReady   = "ready"
	HintStart   = "start"
)

var lastLogTimeMs atomic.Int64

func deltaMs() int64 {
	now := time.Now().UnixMilli()
	prev := lastLogTimeMs.Swap(now)
	if prev == 0 {
		return 0
	}
	return now - prev
}

var bufPool = buffer.NewPool()

// PrettyEncoder formats zap log entries for terminals. Structured fields are
// delegated to an embedded JSON encoder and appended after the message.
type PrettyEncoder struct {
	zapcore.Encoder
	color bool
}

// NewEncoder creates a PrettyEncoder. Set color=true for ANSI output.
func NewEncoder(color bool) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		SkipLineEnding: true,
	}
	return &PrettyEncoder{
		Encoder: zapcore.NewJSONEncoder(cfg),
		color:   color,
	}
}

// ShouldColor reports whether terminal colors should be enabled.
func ShouldColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return true
}

// Clone implements zapcore.Encoder.
func (e *PrettyEncoder) Clone() zapcore.Encoder {
	return &PrettyEncoder{
		Encoder: e.Encoder.Clone(),
		color:   e.color,
	}
}

// EncodeEntry implements zapcore.Encoder.
func (e *PrettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	hint := ""
	kept := fields[:0]
	for _, f := range fields {
		if f.Key == HintKey {
			hint = f.String
			continue
		}
		kept = append(kept, f)
	}
	fields = kept

	buf := bufPool.Get()
	isBadge := entry.Level >= zapcore.ErrorLevel
	if isBadge {
		buf.AppendByte('\n')
	}

	e.paint(buf, ansiGray, entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendByte(' ')

	if isBadge {
		label := " " + strings.ToUpper(entry.Level.String()) + " "
		if e.color {
			buf.AppendString(ansiBgRed + ansiBlack)
			buf.AppendString(label)
			buf.AppendString(ansiReset)
		} else {
			buf.AppendString(label)
		}
	} else {
		icon, iconColor := resolveIcon(entry.Level, hint)
		e.paint(buf, iconColor, icon)
	}
	buf.AppendByte(' ')

	if entry.LoggerName != "" {
		e.paint(buf, ansiYellow, "["+entry.LoggerName+"]")
		buf.AppendByte(' ')
	}

	buf.AppendString(entry.Message)

	if len(fields) > 0 {
		inner, err := e.Encoder.Clone().EncodeEntry(zapcore.Entry{}, fields)
		if err != nil {
			buf.Free()
			return nil, err
		}
		if s := strings.TrimSpace(inner.String()); s != "{}" && s != "" {
			buf.AppendByte(' ')
			e.paint(buf, ansiGray, s)
		}
		inner.Free()
	}

	if delta := deltaMs(); delta > 0 {
		e.paint(buf, ansiYellow, fmt.Sprintf(" +%dms", delta))
	}

	if isBadge {
		buf.AppendByte('\n')
	}
	buf.AppendByte('\n')
	return buf, nil
}

func (e *PrettyEncoder) paint(buf *buffer.Buffer, color, s string) {
	if e.color && color != "" {
		buf.AppendString(color)
		buf.AppendString(s)
		buf.AppendString(ansiReset)
		return
	}
	buf.AppendString(s)
}

func resolveIcon(level zapcore.Level, hint string) (icon string, color string) {
	switch hint {
	case HintSuccess, HintReady:
		return "✔", ansiGreen
	case HintStart:
		return "◐", ansiMagenta
	}
	switch level {
	case zapcore.DebugLevel:
		return "⚙", ansiGray
	case zapcore.WarnLevel:
		return "⚠", ansiYellow
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.DPanicLevel, zapcore.PanicLevel:
		return "✖", ansiRed
	default:
		return "ℹ", ansiCyan
	}
}
