package translator

import (
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-po-translator/pkg/tm"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultSystemPrompt 默认系统提示词
const DefaultSystemPrompt = `专业游戏本地化翻译。
规则:
1. 术语保留英文: Actor/Blueprint/Component/Transform/Mesh/Material/Widget/Collision/Array/Float/Integer
2. 固定翻译: Asset→资产, Unique→去重, Slice→截取, Primitives→基础类型, Constant Speed→匀速, Stream→流送, Ascending→升序, Descending→降序
3. Category: 保持XTools等命名空间和|符号, 如 XTools|Sort|Actor → XTools|排序|Actor
4. 保留所有特殊符号: |、{}、%%、[]、()、\n、\t、{0}、{1}等
5. 特殊表达: in-place→原地, by value→按值, True/False保持原样`

// 提示词中使用的语言名称
var languageNames = map[string]string{
	"zh-Hans": "简体中文",
	"zh-Hant": "繁体中文",
	"en":      "English",
	"ja":      "日本語",
	"ko":      "한국어",
	"fr":      "Français",
	"de":      "Deutsch",
	"es":      "Español",
	"ru":      "Русский",
	"ar":      "العربية",
	"pt":      "Português",
	"it":      "Italiano",
	"th":      "ไทย",
	"vi":      "Tiếng Việt",
}

// LanguageName 返回提示词中的目标语言名称
//
// 常用语言使用固定名称；其他可解析的语言代码使用该语言的自称；
// 无法识别的代码原样返回，空代码返回“目标语言”。
func LanguageName(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "目标语言"
	}
	if name, ok := languageNames[lang]; ok {
		return name
	}
	if name, ok := languageNames[tm.NormalizeLang(lang)]; ok {
		return name
	}

	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return lang
}

// BuildSystemPrompt 构建系统提示词，术语库有风格总结时追加到末尾
func BuildSystemPrompt(custom string, library *TermLibrary) string {
	base := DefaultSystemPrompt
	if strings.TrimSpace(custom) != "" {
		base = custom
	}

	if library == nil {
		return base
	}
	summary := library.StyleSummary()
	if summary == nil {
		return base
	}
	return fmt.Sprintf("%s\n\n【用户翻译风格偏好】（基于%d条术语学习）\n%s",
		base, summary.BasedOnTerms, summary.Prompt)
}

// BuildUserPrompt 构建批量翻译的用户提示词，每条文本带 1 起始的序号
func BuildUserPrompt(texts []string, lang string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "翻译为%s（每行一条，带序号）:\n", LanguageName(lang))
	for i, text := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	return sb.String()
}
