package capture

import "strings"

// keyNames renders the subset of KeyCode values the synthetic source and
// tests use directly to stable string names. A real hook source maps
// platform virtual-key codes through the same table.
var keyNames = map[uint16]string{
	0:  "shift",
	1:  "ctrl",
	2:  "alt",
	3:  "meta",
	4:  "caps",
	5:  "num",
	6:  "scroll",
	7:  "fn",
	8:  "enter",
	9:  "tab",
	10: "backspace",
	11: "escape",
	12: "space",
}

// KeyName renders code as a stable, lower-cased key string. Codes 200-223
// are reserved for F1-F24 (above the ASCII range, so they never shadow a
// printable key); anything else outside the named table falls back to a
// literal rune when it is in the printable ASCII range.
func KeyName(code uint16) string {
	if name, ok := keyNames[code]; ok {
		return name
	}
	if code >= 200 && code <= 223 {
		n := int(code) - 199
		return fKeyName(n)
	}
	if code >= 'A' && code <= 'Z' {
		return strings.ToLower(string(rune(code)))
	}
	if code >= ' ' && code <= '~' {
		return string(rune(code))
	}
	return "unknown"
}

func fKeyName(n int) string {
	digits := [2]byte{}
	if n >= 10 {
		digits[0] = byte('0' + n/10)
		digits[1] = byte('0' + n%10)
		return "f" + string(digits[:])
	}
	return "f" + string(byte('0'+n))
}

// classify derives is_modifier/is_function/key from a raw code.
func classify(code uint16) (key string, isModifier, isFunction bool) {
	key = KeyName(code)
	return key, IsModifierKey(key), IsFunctionKey(key)
}
