package mask

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskTextRedactsCPFAndEmail(t *testing.T) {
	engine := NewEngine()
	result := engine.MaskText("my CPF is 123.456.789-01 and email a@b.co")

	assert.Equal(t, "my CPF is ***.***.***-01 and email a***@b.co", result.Masked)
	assert.Contains(t, result.Tags, "cpf")
	assert.Contains(t, result.Tags, "email")
	assert.NotContains(t, result.Masked, "123")
}

func TestMaskTextIsIdempotent(t *testing.T) {
	engine := NewEngine()
	inputs := []string{
		"CPF 123.456.789-01",
		"card 4111 1111 1111 1111",
		"password=hunter2",
		"nothing to redact here",
		"+1 (415) 555-2671",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := engine.MaskText(in).Masked
			twice := engine.MaskText(once).Masked
			assert.Equal(t, once, twice)
		})
	}
}

func TestMaskTextCreditCard(t *testing.T) {
	engine := NewEngine()
	result := engine.MaskText("card number 4111 1111 1111 1111 expires soon")
	assert.Contains(t, result.Masked, "****-****-****-1111")
	assert.NotContains(t, result.Masked, "4111 1111 1111")
}

func TestMaskTextPasswordAssignment(t *testing.T) {
	engine := NewEngine()
	result := engine.MaskText("password: hunter2")
	assert.Contains(t, result.Tags, "password_assignment")
	assert.NotContains(t, strings.ToLower(result.Masked), "hunter2")
}

func TestMaskTextNoMatchLeavesTextUnchanged(t *testing.T) {
	engine := NewEngine()
	result := engine.MaskText("breakfast recipe ideas")
	assert.Equal(t, "breakfast recipe ideas", result.Masked)
	assert.Empty(t, result.Tags)
}

func TestMaskTextOrderMattersAcrossOverlappingPatterns(t *testing.T) {
	engine := NewEngine()
	result := engine.MaskText("RG 12.345.678-9 CPF 123.456.789-01")
	assert.Contains(t, result.Tags, "rg")
	assert.Contains(t, result.Tags, "cpf")
}

func TestMaskTextCachesIdenticalInput(t *testing.T) {
	engine := NewEngine()
	input := "CPF 123.456.789-01"
	first := engine.MaskText(input)
	second := engine.MaskText(input)
	require.Equal(t, first, second)
}

func TestEngineWithCustomPattern(t *testing.T) {
	custom := Pattern{
		Name:  "ssn_like",
		Regex: regexp.MustCompile(`\bSSN-\d{4}\b`),
		Replacement: func(m string) string {
			return "SSN-****"
		},
	}
	engine := NewEngine(custom)
	result := engine.MaskText("reference SSN-1234 attached")
	assert.Equal(t, "reference SSN-**** attached", result.Masked)
	assert.Contains(t, result.Tags, "ssn_like")
}
