package translator

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// 推理模型输出的思考过程标记
var reasoningTags = []struct {
	start string
	end   string
}{
	{"<think>", "</think>"},
	{"<thinking>", "</thinking>"},
	{"<thought>", "</thought>"},
	{"<reasoning>", "</reasoning>"},
	{"<reflection>", "</reflection>"},
	{"[THINKING]", "[/THINKING]"},
	{"[REASONING]", "[/REASONING]"},
}

var (
	reasoningBlocks = buildReasoningPattern()
	// 以 thinking、reasoning 等标记的 Markdown 代码块
	reasoningFences = regexp2.MustCompile("(?m)^```(?:thinking|reasoning|thought|reflection)[^\\n]*\\n[\\s\\S]*?^```[^\\n]*$", regexp2.None)
	extraBlankLines = regexp2.MustCompile(`\n{3,}`, regexp2.None)
)

func buildReasoningPattern() *regexp2.Regexp {
	alternatives := make([]string, 0, len(reasoningTags))
	for _, tag := range reasoningTags {
		alternatives = append(alternatives, regexp2.Escape(tag.start)+`[\s\S]*?`+regexp2.Escape(tag.end))
	}
	return regexp2.MustCompile(strings.Join(alternatives, "|"), regexp2.IgnoreCase)
}

// HasReasoningTags 内容中是否带有思考过程标记
func HasReasoningTags(content string) bool {
	lower := strings.ToLower(content)
	for _, tag := range reasoningTags {
		if strings.Contains(lower, strings.ToLower(tag.start)) {
			return true
		}
	}
	ok, _ := reasoningFences.MatchString(content)
	return ok
}

// RemoveReasoning 去掉响应中的思考过程，只保留最终答案
//
// 没有闭合的开始标记保持原样。
func RemoveReasoning(content string) string {
	if !HasReasoningTags(content) {
		return content
	}
	result := content
	if replaced, err := reasoningBlocks.Replace(result, "", -1, -1); err == nil {
		result = replaced
	}
	if replaced, err := reasoningFences.Replace(result, "", -1, -1); err == nil {
		result = replaced
	}
	if replaced, err := extraBlankLines.Replace(result, "\n\n", -1, -1); err == nil {
		result = replaced
	}
	return strings.TrimSpace(result)
}
