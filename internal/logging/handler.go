package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// SanitizingHandler wraps another handler and masks secrets in the
// message and every string attribute before the record is emitted.
type SanitizingHandler struct {
	next      slog.Handler
	sanitizer *Sanitizer
}

// NewSanitizingHandler wraps next with secret masking.
func NewSanitizingHandler(next slog.Handler, sanitizer *Sanitizer) *SanitizingHandler {
	return &SanitizingHandler{next: next, sanitizer: sanitizer}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, h.sanitizer.Sanitize(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.scrubAttr(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = h.scrubAttr(a)
	}
	return &SanitizingHandler{next: h.next.WithAttrs(scrubbed), sanitizer: h.sanitizer}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name), sanitizer: h.sanitizer}
}

func (h *SanitizingHandler) scrubAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.sanitizer.Sanitize(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		scrubbed := make([]slog.Attr, len(group))
		for i, member := range group {
			scrubbed[i] = h.scrubAttr(member)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}
	default:
		return a
	}
}

var (
	prettyTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	prettyKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	prettyFocusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

	prettyLevelStyles = map[slog.Level]lipgloss.Style{
		slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		slog.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	prettyLevelTags = map[slog.Level]string{
		slog.LevelDebug: "DBG",
		slog.LevelInfo:  "INF",
		slog.LevelWarn:  "WRN",
		slog.LevelError: "ERR",
	}
)

// focusKeys are the attributes a reader scans a consultation log for;
// the pretty handler renders them ahead of everything else.
var focusKeys = map[string]bool{
	"consultation_id": true,
	"round":           true,
	"agent":           true,
	"provider":        true,
}

// PrettyHandler renders records for an interactive terminal: short
// timestamp, colored level tag, consultation attributes first.
type PrettyHandler struct {
	mu     sync.Mutex
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewPrettyHandler creates a terminal handler writing to w.
func NewPrettyHandler(w io.Writer, level slog.Level) *PrettyHandler {
	return &PrettyHandler{w: w, level: level}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var focus, rest []slog.Attr
	collect := func(a slog.Attr) {
		if focusKeys[a.Key] && len(h.groups) == 0 {
			focus = append(focus, a)
			return
		}
		rest = append(rest, a)
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	var b strings.Builder
	b.WriteString(prettyTimeStyle.Render(r.Time.Format("15:04:05")))
	b.WriteByte(' ')
	b.WriteString(h.renderLevel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range focus {
		h.renderAttr(&b, a, prettyFocusStyle)
	}
	for _, a := range rest {
		h.renderAttr(&b, a, prettyKeyStyle)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, b.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PrettyHandler{w: h.w, level: h.level, attrs: merged, groups: h.groups}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{w: h.w, level: h.level, attrs: h.attrs, groups: append(h.groups, name)}
}

func (h *PrettyHandler) renderLevel(level slog.Level) string {
	tag, ok := prettyLevelTags[level]
	if !ok {
		tag = level.String()
	}
	if style, ok := prettyLevelStyles[level]; ok {
		return style.Render(tag)
	}
	return tag
}

func (h *PrettyHandler) renderAttr(b *strings.Builder, a slog.Attr, style lipgloss.Style) {
	if a.Value.Kind() == slog.KindGroup {
		for _, member := range a.Value.Group() {
			h.renderAttr(b, member, style)
		}
		return
	}
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	fmt.Fprintf(b, " %s=%v", style.Render(key), a.Value.Any())
}
