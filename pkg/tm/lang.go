package tm

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLang 将语言代码规范化为记忆库使用的形式
//
// 中文按书写系统归一为 zh-Hans / zh-Hant (zh-CN、zh-SG → zh-Hans，zh-TW、zh-HK → zh-Hant)，
// 其余语言只保留基础语言 (en-US → en)。无法解析的输入原样返回。
func NormalizeLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}

	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}

	base, conf := tag.Base()
	if conf == language.No || base.String() == "und" {
		return lang
	}

	if base.String() == "zh" {
		script, _ := tag.Script()
		if script.String() == "Hant" {
			return "zh-Hant"
		}
		return "zh-Hans"
	}

	return base.String()
}

// Fingerprint 生成记忆库键: text|lang，语言为空时使用旧版不带语言的键
func Fingerprint(text, lang string) string {
	normalized := NormalizeLang(lang)
	if normalized == "" {
		return text
	}
	return text + "|" + normalized
}
