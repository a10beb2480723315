package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// prettyHandler renders one human-readable line per record:
//
//	2024-05-01 10:00:00 INFO [oracle] scan - lookup complete artist="The Band"
//
// component and stage are lifted into the header; other attributes trail
// the message as key=value pairs with dotted group prefixes.
type prettyHandler struct {
	mu         *sync.Mutex
	out        io.Writer
	level      slog.Level
	withSource bool
	preset     []field
	groups     []string
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(out io.Writer, level slog.Level, withSource bool) *prettyHandler {
	return &prettyHandler{mu: new(sync.Mutex), out: out, level: level, withSource: withSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, h.groups, attr)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.groups, attr)
		return true
	})

	var component, stage string
	trailing := fields[:0]
	for _, f := range fields {
		switch {
		case f.key == FieldComponent && component == "":
			component = plain(f.value)
		case f.key == FieldStage && stage == "":
			stage = plain(f.value)
		case f.key == FieldComponent || f.key == FieldStage:
		default:
			trailing = append(trailing, f)
		}
	}

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	var line strings.Builder
	line.WriteString(when.Local().Format(consoleTimeLayout))
	line.WriteString(" " + levelName(record.Level))
	if component != "" {
		line.WriteString(" [" + component + "]")
	}
	if stage != "" {
		line.WriteString(" " + stage)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line.WriteString(" - " + msg)
	if h.withSource {
		if src := record.Source(); src != nil {
			line.WriteString(" [" + sourceLabel(src) + "]")
		}
	}
	for _, f := range trailing {
		fmt.Fprintf(&line, " %s=%s", f.key, quoted(f.value))
	}
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

// appendField flattens attr, expanding groups into dotted keys.
func appendField(dst []field, groups []string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() != slog.KindGroup {
		key := attr.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		return append(dst, field{key: key, value: attr.Value})
	}
	inner := groups
	if attr.Key != "" {
		inner = append(append([]string(nil), groups...), attr.Key)
	}
	for _, member := range attr.Value.Group() {
		dst = appendField(dst, inner, member)
	}
	return dst
}

// plain renders v without quoting.
func plain(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// quoted renders v, quoting it when it is empty or would break key=value parsing.
func quoted(v slog.Value) string {
	s := plain(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
