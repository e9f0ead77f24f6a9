// Package pofile 读写 gettext PO 文件
//
// 解析保留条目顺序、注释、标记和已废弃条目，写回时按原顺序输出，
// 只有译文字段会因翻译而变化。
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Entry PO 文件中的一个条目
type Entry struct {
	TranslatorComments []string // "# "
	ExtractedComments  []string // "#."
	References         []string // "#:"
	Flags              []string // "#,"
	PreviousMsgID      string   // "#| msgid"

	MsgCtxt      string
	MsgID        string
	MsgIDPlural  string
	MsgStr       string
	MsgStrPlural map[int]string

	Obsolete bool // "#~"
	Line     int  // 条目起始行号，从 1 开始
}

// IsHeader 是否为文件头（msgid 为空且没有上下文）
func (e *Entry) IsHeader() bool {
	return e.MsgID == "" && e.MsgCtxt == "" && !e.Obsolete
}

// IsPlural 是否为复数条目
func (e *Entry) IsPlural() bool {
	return e.MsgIDPlural != ""
}

// HasFlag 检查是否带有某个标记
func (e *Entry) HasFlag(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// IsFuzzy 是否标记为 fuzzy
func (e *Entry) IsFuzzy() bool {
	return e.HasFlag("fuzzy")
}

// SetFuzzy 添加或移除 fuzzy 标记
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy {
		if !e.IsFuzzy() {
			e.Flags = append(e.Flags, "fuzzy")
		}
		return
	}
	e.Flags = slices.DeleteFunc(e.Flags, func(f string) bool { return f == "fuzzy" })
}

// IsTranslated 是否已有完整译文，fuzzy 条目视为未翻译
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" || e.IsFuzzy() {
		return false
	}
	if e.IsPlural() {
		if len(e.MsgStrPlural) == 0 {
			return false
		}
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return true
	}
	return e.MsgStr != ""
}

// Key 条目的唯一键：msgctxt\x04msgid，与 MO 文件的约定一致
func (e *Entry) Key() string {
	if e.MsgCtxt == "" {
		return e.MsgID
	}
	return e.MsgCtxt + "\x04" + e.MsgID
}

// Stats 文件的翻译进度
type Stats struct {
	Total        int
	Translated   int
	Fuzzy        int
	Untranslated int
	Obsolete     int
	Plural       int
}

// File 解析后的 PO 文件
type File struct {
	Header  *Entry
	Entries []*Entry
}

// NewFile 创建只有 UTF-8 文件头的空文件
func NewFile() *File {
	return &File{
		Header: &Entry{
			MsgStr: "Content-Type: text/plain; charset=UTF-8\nContent-Transfer-Encoding: 8bit\n",
		},
	}
}

// HeaderField 按名称读取文件头字段（不区分大小写）
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// SetHeaderField 设置文件头字段，不存在时追加
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}

	lines := strings.Split(f.Header.MsgStr, "\n")
	for i, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			lines[i] = name + ": " + value
			f.Header.MsgStr = strings.Join(lines, "\n")
			return
		}
	}

	// 插在结尾的空行之前
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = append(lines[:n-1], name+": "+value, "")
	} else {
		lines = append(lines, name+": "+value)
	}
	f.Header.MsgStr = strings.Join(lines, "\n")
}

// Stats 统计翻译进度，不含文件头
func (f *File) Stats() Stats {
	var s Stats
	for _, e := range f.Entries {
		if e.Obsolete {
			s.Obsolete++
			continue
		}
		s.Total++
		if e.IsPlural() {
			s.Plural++
		}
		switch {
		case e.IsFuzzy():
			s.Fuzzy++
		case e.IsTranslated():
			s.Translated++
		default:
			s.Untranslated++
		}
	}
	return s
}

// UntranslatedEntries 需要翻译的条目：未废弃、非 fuzzy、没有译文，按文件顺序
func (f *File) UntranslatedEntries() []*Entry {
	var result []*Entry
	for _, e := range f.Entries {
		if e.Obsolete || e.MsgID == "" {
			continue
		}
		if !e.IsTranslated() && !e.IsFuzzy() {
			result = append(result, e)
		}
	}
	return result
}

// Lookup 按 msgctxt 和 msgid 查找未废弃的条目
func (f *File) Lookup(msgctxt, msgid string) *Entry {
	for _, e := range f.Entries {
		if !e.Obsolete && e.MsgCtxt == msgctxt && e.MsgID == msgid {
			return e
		}
	}
	return nil
}

// ParseFile 从磁盘读取 PO 文件
func ParseFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	f, err := Parse(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// field 续行追加的目标字段
type field struct {
	name  string
	index int // msgstr[n] 的 n
}

// Parse 解析 PO 内容
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		current *Entry
		last    field
		lineNum int
		seenID  bool
	)

	flush := func() {
		if current == nil {
			return
		}
		// 只有注释没有 msgid 的块丢弃
		if !seenID {
			current = nil
			last = field{}
			return
		}
		seenID = false
		if current.IsHeader() && f.Header == nil && len(f.Entries) == 0 {
			f.Header = current
		} else {
			f.Entries = append(f.Entries, current)
		}
		current = nil
		last = field{}
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimLeft(line, " \t")

		if line == "" {
			flush()
			continue
		}

		if current == nil {
			current = &Entry{Line: lineNum}
		}

		// 废弃条目：去掉前缀后按普通行处理
		if strings.HasPrefix(line, "#~") {
			current.Obsolete = true
			line = strings.TrimLeft(line[2:], " ")
			if strings.HasPrefix(line, "|") {
				line = "#" + line
			}
			if line == "" {
				continue
			}
		}

		if strings.HasPrefix(line, "#") {
			parseComment(current, line)
			continue
		}

		if strings.HasPrefix(line, `"`) {
			value, err := unquote(line)
			if err != nil {
				return nil, fmt.Errorf("第 %d 行: %w", lineNum, err)
			}
			if last.name == "" {
				return nil, fmt.Errorf("第 %d 行: 续行之前没有字段", lineNum)
			}
			appendField(current, last, value)
			continue
		}

		keyword, rest, _ := strings.Cut(line, " ")
		value, err := unquote(rest)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", lineNum, err)
		}

		switch {
		case keyword == "msgctxt":
			current.MsgCtxt = value
			last = field{name: keyword}
		case keyword == "msgid":
			current.MsgID = value
			last = field{name: keyword}
			seenID = true
		case keyword == "msgid_plural":
			current.MsgIDPlural = value
			last = field{name: keyword}
		case keyword == "msgstr":
			current.MsgStr = value
			last = field{name: keyword}
		case strings.HasPrefix(keyword, "msgstr[") && strings.HasSuffix(keyword, "]"):
			index, err := strconv.Atoi(keyword[len("msgstr[") : len(keyword)-1])
			if err != nil || index < 0 {
				return nil, fmt.Errorf("第 %d 行: 无效的复数序号 %q", lineNum, keyword)
			}
			if current.MsgStrPlural == nil {
				current.MsgStrPlural = make(map[int]string)
			}
			current.MsgStrPlural[index] = value
			last = field{name: "msgstr[]", index: index}
		default:
			return nil, fmt.Errorf("第 %d 行: 无法识别的关键字 %q", lineNum, keyword)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取 PO 文件失败: %w", err)
	}
	flush()

	return f, nil
}

func parseComment(e *Entry, line string) {
	if len(line) == 1 {
		e.TranslatorComments = append(e.TranslatorComments, "")
		return
	}

	body := strings.TrimSpace(line[2:])
	switch line[1] {
	case ':':
		e.References = append(e.References, body)
	case ',':
		for _, flag := range strings.Split(body, ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				e.Flags = append(e.Flags, flag)
			}
		}
	case '.':
		e.ExtractedComments = append(e.ExtractedComments, body)
	case '|':
		if rest, ok := strings.CutPrefix(body, "msgid "); ok {
			e.PreviousMsgID, _ = unquote(rest)
		}
	default:
		e.TranslatorComments = append(e.TranslatorComments, strings.TrimPrefix(line[1:], " "))
	}
}

func appendField(e *Entry, target field, value string) {
	switch target.name {
	case "msgctxt":
		e.MsgCtxt += value
	case "msgid":
		e.MsgID += value
	case "msgid_plural":
		e.MsgIDPlural += value
	case "msgstr":
		e.MsgStr += value
	case "msgstr[]":
		e.MsgStrPlural[target.index] += value
	}
}

// Write 按原顺序写出所有条目
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	first := true
	write := func(e *Entry) {
		if !first {
			bw.WriteString("\n")
		}
		first = false
		writeEntry(bw, e)
	}

	if f.Header != nil {
		write(f.Header)
	}
	for _, e := range f.Entries {
		write(e)
	}

	return bw.Flush()
}

// WriteFile 写入磁盘，先写临时文件再重命名
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".po-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeEntry(w *bufio.Writer, e *Entry) {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	for _, c := range e.TranslatorComments {
		if c == "" {
			w.WriteString("#\n")
			continue
		}
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	if e.PreviousMsgID != "" {
		if e.Obsolete {
			fmt.Fprintf(w, "#~| msgid %s\n", quote(e.PreviousMsgID))
		} else {
			fmt.Fprintf(w, "#| msgid %s\n", quote(e.PreviousMsgID))
		}
	}

	if e.MsgCtxt != "" {
		writeField(w, prefix, "msgctxt", e.MsgCtxt)
	}
	writeField(w, prefix, "msgid", e.MsgID)
	if e.IsPlural() {
		writeField(w, prefix, "msgid_plural", e.MsgIDPlural)
		indices := make([]int, 0, len(e.MsgStrPlural))
		for i := range e.MsgStrPlural {
			indices = append(indices, i)
		}
		slices.Sort(indices)
		if len(indices) == 0 {
			indices = []int{0}
		}
		for _, i := range indices {
			writeField(w, prefix, fmt.Sprintf("msgstr[%d]", i), e.MsgStrPlural[i])
		}
		return
	}
	writeField(w, prefix, "msgstr", e.MsgStr)
}

// writeField 多行值写成 msgid "" 加逐行续行的形式
func writeField(w *bufio.Writer, prefix, name, value string) {
	if !strings.Contains(strings.TrimSuffix(value, "\n"), "\n") {
		fmt.Fprintf(w, "%s%s %s\n", prefix, name, quote(value))
		return
	}

	fmt.Fprintf(w, "%s%s \"\"\n", prefix, name)
	for _, part := range strings.SplitAfter(value, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s%s\n", prefix, quote(part))
		}
	}
}

// quote 转义为 PO 字符串字面量
func quote(s string) string {
	return `"` + Escape(s) + `"`
}

// Escape 把文本转义成 PO 字面量里的形式（不含两侧引号），例如换行写成 \n
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unescape 是 Escape 的逆操作，未知转义原样保留
func Unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// unquote 解析 PO 字符串字面量
func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("缺少引号: %s", s)
	}
	return Unescape(s[1 : len(s)-1]), nil
}
