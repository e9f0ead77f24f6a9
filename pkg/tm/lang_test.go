package tm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLang(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"zh-Hans", "zh-Hans"},
		{"zh-CN", "zh-Hans"},
		{"zh_CN", "zh-Hans"},
		{"zh", "zh-Hans"},
		{"zh-TW", "zh-Hant"},
		{"zh-HK", "zh-Hant"},
		{"zh-Hant", "zh-Hant"},
		{"en", "en"},
		{"en-US", "en"},
		{"ja-JP", "ja"},
		{"pt-BR", "pt"},
		{"!!", "!!"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeLang(tc.input))
		})
	}
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "Hello|en", Fingerprint("Hello", "en-GB"))
	assert.Equal(t, "Hello", Fingerprint("Hello", ""))
	assert.Equal(t, "XTools|Random|zh-Hans", Fingerprint("XTools|Random", "zh-CN"))
}
