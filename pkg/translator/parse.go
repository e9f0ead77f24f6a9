package translator

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"go.uber.org/zap"
)

// 匹配 "1. xxx"、"2) xxx"、"3、xxx"、"4: xxx" 等带序号的行
var numberedLine = regexp2.MustCompile(`^\d+[\.\)、:\s]+(.+)$`, regexp2.None)

// ParseTranslations 解析 AI 返回的逐行译文
//
// 优先提取带序号的行；没有任何一行带序号时把所有非空行视为译文。
// 条数与原文不一致时返回 COUNT_MISMATCH，占位符数量不一致只记录警告。
func ParseTranslations(response string, originals []string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var lines []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	translations := make([]string, 0, len(lines))
	for _, line := range lines {
		m, err := numberedLine.FindStringMatch(line)
		if err != nil || m == nil {
			continue
		}
		if group := m.GroupByNumber(1); group != nil {
			translations = append(translations, strings.TrimSpace(group.String()))
		}
	}
	if len(translations) == 0 {
		translations = lines
	}

	if len(translations) != len(originals) {
		logger.Error("翻译数量不匹配",
			zap.Int("expected", len(originals)),
			zap.Int("actual", len(translations)))
		return nil, translation.NewCountMismatchError(len(originals), len(translations))
	}

	for i, original := range originals {
		translations[i] = restoreTrailingNewline(original, translations[i])

		want, got := CountPlaceholders(original), CountPlaceholders(translations[i])
		if want != got {
			logger.Warn("占位符数量不一致",
				zap.Int("index", i+1),
				zap.String("original", original),
				zap.String("translation", translations[i]),
				zap.Int("expected", want),
				zap.Int("actual", got))
		}
	}

	return translations, nil
}

// restoreTrailingNewline 原文以字面 \n 结尾而译文丢失了所有 \n 时补回
func restoreTrailingNewline(original, translated string) string {
	if strings.Contains(original, `\n`) &&
		!strings.Contains(translated, `\n`) &&
		strings.HasSuffix(original, `\n`) {
		return translated + `\n`
	}
	return translated
}

// CountPlaceholders 统计 {0} 形式的序号占位符和 %% 转义
func CountPlaceholders(text string) int {
	runes := []rune(text)
	count := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '{':
			if i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
				count++
			}
		case '%':
			if i+1 < len(runes) && runes[i+1] == '%' {
				count++
				i++
			}
		}
	}
	return count
}
