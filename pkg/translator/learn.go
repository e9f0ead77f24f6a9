package translator

import "strings"

const (
	// 可学习原文的最大字节长度
	maxLearnTextBytes = 20
	// 可学习译文的最大字节长度
	maxLearnTranslationBytes = 50
	// 可学习原文的最大单词数
	maxLearnWords = 3
)

var (
	sentenceEndings     = []string{". ", "! ", "? ", "。", "！", "？"}
	indexedPlaceholders = []string{"{0}", "{1}", "{2}"}
	escapeSequences     = []string{`\n`, `\t`, `\r`}
	specialSymbols      = "()[]→•|"
	questionStarters    = map[string]bool{
		"Whether": true, "How": true, "What": true, "When": true,
		"Where": true, "Why": true, "Which": true, "Who": true,
	}
	prepositionPhrases = []string{"for ", "of ", "in the ", "on the ", "at the ", "by the ", "with the "}
	descriptiveWords   = []string{"duration", "spacing", "radius", "distance", "example", "tips", "mappings", "examples"}
)

// IsSimplePhrase 判断原文是否是值得写入记忆库的短语
//
// 句子、带占位符或转义序列的文本、疑问句、介词短语以及描述性字段名都不学习。
func IsSimplePhrase(text string) bool {
	if len(text) > maxLearnTextBytes {
		return false
	}
	if containsAny(text, sentenceEndings) {
		return false
	}

	words := strings.Fields(text)
	if len(words) > maxLearnWords {
		return false
	}
	if containsAny(text, indexedPlaceholders) || containsAny(text, escapeSequences) {
		return false
	}
	if strings.ContainsAny(text, specialSymbols) {
		return false
	}
	if len(words) > 0 && questionStarters[words[0]] {
		return false
	}

	lower := strings.ToLower(text)
	if containsAny(lower, prepositionPhrases) || containsAny(lower, descriptiveWords) {
		return false
	}
	return true
}

// shouldLearn 原文是简单短语且译文不过长
func shouldLearn(text, translated string) bool {
	return IsSimplePhrase(text) && len(translated) <= maxLearnTranslationBytes
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
