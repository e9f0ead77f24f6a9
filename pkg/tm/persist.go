package tm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"go.uber.org/zap"
)

// fileStats 持久化文件中的统计字段
type fileStats struct {
	TotalEntries   int `json:"total_entries"`
	LearnedEntries int `json:"learned_entries"`
	BuiltinEntries int `json:"builtin_entries"`
	Hits           int `json:"hits"`
	Misses         int `json:"misses"`
}

// fileHeader 读取时使用的文件结构，learned/memory 需要保序解析
type fileHeader struct {
	Learned     json.RawMessage `json:"learned"`
	Memory      json.RawMessage `json:"memory"`
	LastUpdated time.Time       `json:"last_updated"`
	Stats       fileStats       `json:"stats"`
}

// Load 从文件加载记忆库
//
// 文件不存在时返回带内置词条的新记忆库；文件存在时只加载其中的学习记录，
// 不自动合并内置词条（需要时调用 MergeBuiltins）。
func Load(path string, opts ...Option) (*Memory, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		m := New(opts...)
		m.logger.Info("首次使用，加载内置短语", zap.Int("count", m.Len()))
		return m, nil
	}
	if err != nil {
		return nil, translation.NewCachePersistenceError("读取翻译记忆库失败", err)
	}

	var header fileHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, translation.NewCachePersistenceError("解析翻译记忆库失败", err)
	}

	m := NewEmpty(opts...)
	raw := header.Learned
	legacy := false
	if len(raw) == 0 && len(header.Memory) > 0 {
		raw = header.Memory
		legacy = true
	}
	if len(raw) > 0 {
		if err := decodeOrdered(raw, m.insertLocked); err != nil {
			return nil, translation.NewCachePersistenceError("解析翻译记忆库失败", err)
		}
	}

	m.stats = Stats{
		TotalEntries: len(m.order),
		Hits:         header.Stats.Hits,
		Misses:       header.Stats.Misses,
	}
	if !header.LastUpdated.IsZero() {
		m.lastUpdated = header.LastUpdated
	}

	m.logger.Info("加载翻译记忆库",
		zap.String("path", path),
		zap.Int("learned", len(m.order)),
		zap.Bool("legacy_format", legacy))
	return m, nil
}

// decodeOrdered 按文件中的顺序解析 JSON 对象，非字符串值被忽略
func decodeOrdered(raw json.RawMessage, put func(key, value string)) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if s, ok := value.(string); ok {
			put(key, s)
		}
	}

	_, err = dec.Token()
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Save 保存记忆库，只写入非内置的学习记录
func (m *Memory) Save(path string) error {
	m.mu.Lock()
	learned := make([]string, 0, len(m.order))
	for _, key := range m.order {
		if !IsSeed(key) {
			learned = append(learned, key)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("{\n  \"learned\": {")
	for i, key := range learned {
		k, _ := json.Marshal(key)
		v, _ := json.Marshal(m.entries[key])
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	if len(learned) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteString("},\n")

	lastUpdated, _ := json.Marshal(m.lastUpdated.UTC().Format(time.RFC3339))
	buf.WriteString("  \"last_updated\": ")
	buf.Write(lastUpdated)
	buf.WriteString(",\n")

	stats, _ := json.MarshalIndent(fileStats{
		TotalEntries:   len(m.order),
		LearnedEntries: len(learned),
		BuiltinEntries: BuiltinCount(),
		Hits:           m.stats.Hits,
		Misses:         m.stats.Misses,
	}, "  ", "  ")
	buf.WriteString("  \"stats\": ")
	buf.Write(stats)
	buf.WriteString("\n}\n")
	m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return translation.NewCachePersistenceError("创建记忆库目录失败", err)
	}

	// 原子写入
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0o644); err != nil {
		return translation.NewCachePersistenceError("写入翻译记忆库失败", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		return translation.NewCachePersistenceError("写入翻译记忆库失败", err)
	}

	m.logger.Info("保存翻译记忆库", zap.Int("learned", len(learned)))
	return nil
}
