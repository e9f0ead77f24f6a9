package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageName(t *testing.T) {
	testCases := []struct {
		lang     string
		expected string
	}{
		{"", "目标语言"},
		{"zh-Hans", "简体中文"},
		{"zh-CN", "简体中文"},
		{"zh-TW", "繁体中文"},
		{"en-US", "English"},
		{"ja", "日本語"},
		{"vi", "Tiếng Việt"},
		{"not a code", "not a code"},
	}
	for _, tc := range testCases {
		t.Run(tc.lang, func(t *testing.T) {
			assert.Equal(t, tc.expected, LanguageName(tc.lang))
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	got := BuildUserPrompt([]string{"Hello", "XTools|Sort|Actor"}, "zh-Hans")
	assert.Equal(t, "翻译为简体中文（每行一条，带序号）:\n1. Hello\n2. XTools|Sort|Actor\n", got)

	got = BuildUserPrompt([]string{"Hello"}, "")
	assert.Equal(t, "翻译为目标语言（每行一条，带序号）:\n1. Hello\n", got)
}

func TestBuildSystemPrompt(t *testing.T) {
	assert.Equal(t, DefaultSystemPrompt, BuildSystemPrompt("", nil))
	assert.Equal(t, DefaultSystemPrompt, BuildSystemPrompt("   ", nil))
	assert.Equal(t, "自定义", BuildSystemPrompt("自定义", nil))

	lib := NewTermLibrary(nil)
	assert.Equal(t, "自定义", BuildSystemPrompt("自定义", lib))

	lib.AddTerm("Asset", "资产", "素材", "")
	lib.AddTerm("Debug", "debug", "调试", "")
	lib.UpdateStyleSummary("技术型翻译，保留英文术语")
	assert.Equal(t, "自定义\n\n【用户翻译风格偏好】（基于2条术语学习）\n技术型翻译，保留英文术语",
		BuildSystemPrompt("自定义", lib))
}
