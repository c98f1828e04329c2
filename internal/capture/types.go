// Package capture owns the global keyboard hook, classifies raw events,
// annotates them with window context, applies coarse filters, and forwards
// surviving events to the Mask stage through a bounded channel.
package capture

import "time"

// EventKind distinguishes a key press from a key release.
type EventKind int

const (
	KindPress EventKind = iota
	KindRelease
)

func (k EventKind) String() string {
	if k == KindPress {
		return "press"
	}
	return "release"
}

// RawKeyEvent is the fixed-size value the hook callback writes into the
// hook→capture queue. It must remain allocation-free to construct: no
// pointers to heap-allocated strings, no slices.
type RawKeyEvent struct {
	TSMillis int64
	KeyCode  uint16
	Kind     EventKind
	SourceID uint8
}

// WindowContext is an immutable snapshot of the foreground window, sampled
// by the window-probe thread. It never carries raw user input.
type WindowContext struct {
	Title       string
	Application string
	ProcessID   int
}

// CapturedEvent is the annotated, classified event forwarded to Mask.
type CapturedEvent struct {
	TS         time.Time
	Key        string
	Kind       EventKind
	IsModifier bool
	IsFunction bool
	Window     WindowContext
	Text       string // printable insertion fragment, empty otherwise
	SessionID  string // correlates every event with the Stage run that produced it
}

// modifierKeys is the standard modifier set per spec classification rules.
var modifierKeys = map[string]bool{
	"shift": true, "ctrl": true, "alt": true, "meta": true,
	"caps": true, "num": true, "scroll": true, "fn": true,
}

// IsModifierKey reports whether key (already lower-cased) names a modifier.
func IsModifierKey(key string) bool { return modifierKeys[key] }

// IsFunctionKey reports whether key names F1 through F24.
func IsFunctionKey(key string) bool {
	if len(key) < 2 || len(key) > 3 || key[0] != 'f' {
		return false
	}
	n := 0
	for _, r := range key[1:] {
		if r < '0' || r > '9' {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n >= 1 && n <= 24
}
