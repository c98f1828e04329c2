package mask

import "regexp"

// Pattern is an ordered redaction rule: name, compiled regex, and a
// replacement template applied to each match. Order is significant because
// earlier replacements alter the input seen by later patterns.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement func(match string) string
	// Literal is a substring that must appear in the input for Regex to have
	// any chance of matching; used as a cheap strings.Contains prescreen.
	Literal string
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}

// builtinPatterns is the v1 pattern table named in spec §4.2: CPF, CNPJ, RG,
// Brazilian email, credit card, international phone, password-assignment
// tokens. Credit card runs before phone because the phone regex would
// otherwise match the first three groups of a 4-4-4-4 card number.
// Replacements preserve a short suffix for debuggability without leaking
// identity, per "preserves a configured suffix".
var builtinPatterns = []Pattern{
	{
		Name:    "cpf",
		Literal: "",
		Regex:   regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`),
		Replacement: func(m string) string {
			return "***.***.***-" + lastN(digitsOnly(m), 2)
		},
	},
	{
		Name:  "cnpj",
		Regex: regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}\b`),
		Replacement: func(m string) string {
			return "**.***.***/****-" + lastN(digitsOnly(m), 2)
		},
	},
	{
		Name:  "rg",
		Regex: regexp.MustCompile(`\b\d{1,2}\.\d{3}\.\d{3}-[\dXx]\b`),
		Replacement: func(m string) string {
			return "**.***.***-" + lastN(m, 1)
		},
	},
	{
		Name:    "email",
		Literal: "@",
		Regex:   regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`),
		Replacement: func(m string) string {
			at := indexByte(m, '@')
			if at <= 0 {
				return "***"
			}
			local := m[:at]
			domain := m[at:]
			return lastN(local, 1) + "***" + domain
		},
	},
	{
		Name:  "credit_card",
		Regex: regexp.MustCompile(`\b(?:\d{4}[\s\-]?){3}\d{4}\b`),
		Replacement: func(m string) string {
			return "****-****-****-" + lastN(digitsOnly(m), 4)
		},
	},
	{
		Name:  "phone",
		Regex: regexp.MustCompile(`\+?\d{1,3}[\s.\-]?\(?\d{2,4}\)?[\s.\-]?\d{3,5}[\s.\-]?\d{4}\b`),
		Replacement: func(m string) string {
			digits := digitsOnly(m)
			return "***-***-" + lastN(digits, 4)
		},
	},
	{
		Name:    "password_assignment",
		Literal: "password",
		Regex:   regexp.MustCompile(`(?i)\bpassword\s*[:=]\s*\S+`),
		Replacement: func(m string) string {
			return "password=***"
		},
	},
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
