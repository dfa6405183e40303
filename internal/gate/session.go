// Package gate restricts signal forwarding to configured trading sessions
// and suppresses duplicate alerts. It replaces the implicit module-level
// last_signal / last_alerted_session state of the original bots with
// explicit, caller-owned values.
package gate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SessionWindow is a named UTC time-of-day trading window. A window whose
// start is after its end wraps midnight: (21:00, 06:00) covers 21:00–24:00
// and 00:00–06:00.
type SessionWindow struct {
	Name  string
	Start time.Duration // offset from midnight UTC
	End   time.Duration
}

// Contains reports whether the UTC time-of-day of t falls inside the window.
// Start is inclusive, End exclusive.
func (w *SessionWindow) Contains(t time.Time) bool {
	u := t.UTC()
	tod := time.Duration(u.Hour())*time.Hour +
		time.Duration(u.Minute())*time.Minute +
		time.Duration(u.Second())*time.Second

	if w.Start <= w.End {
		return tod >= w.Start && tod < w.End
	}
	// Wraps midnight.
	return tod >= w.Start || tod < w.End
}

// ParseSessionWindow parses "name=HH:MM-HH:MM" into a SessionWindow.
func ParseSessionWindow(s string) (SessionWindow, error) {
	name, span, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok {
		return SessionWindow{}, fmt.Errorf("session %q: missing '='", s)
	}
	from, to, ok := strings.Cut(span, "-")
	if !ok {
		return SessionWindow{}, fmt.Errorf("session %q: missing '-'", s)
	}
	start, err := parseTimeOfDay(from)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session %q: %w", s, err)
	}
	end, err := parseTimeOfDay(to)
	if err != nil {
		return SessionWindow{}, fmt.Errorf("session %q: %w", s, err)
	}
	return SessionWindow{Name: strings.TrimSpace(name), Start: start, End: end}, nil
}

func parseTimeOfDay(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("bad time of day %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour %q", hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", mm)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ActiveSession returns the first window containing t, or nil when t falls
// outside every window ("none").
func ActiveSession(windows []SessionWindow, t time.Time) *SessionWindow {
	for i := range windows {
		if windows[i].Contains(t) {
			return &windows[i]
		}
	}
	return nil
}
