package tm

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoadsSeeds(t *testing.T) {
	m := New()

	assert.Equal(t, BuiltinCount(), m.Len())
	got, ok := m.Lookup("Ascending", "zh-Hans")
	assert.True(t, ok)
	assert.Equal(t, "升序", got)

	// 同一原文在其他语言下未命中
	_, ok = m.Lookup("Ascending", "ja")
	assert.False(t, ok)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.InDelta(t, 0.5, m.HitRate(), 1e-9)
}

func TestLookupNormalizesLanguage(t *testing.T) {
	m := NewEmpty()
	m.Learn("Save", "保存", "zh-CN")

	for _, lang := range []string{"zh-Hans", "zh_CN", "zh-SG", "zh"} {
		got, ok := m.Lookup("Save", lang)
		assert.True(t, ok, lang)
		assert.Equal(t, "保存", got)
	}
	_, ok := m.Lookup("Save", "zh-TW")
	assert.False(t, ok)
}

func TestLearnOverwritesInPlace(t *testing.T) {
	m := NewEmpty()
	m.Learn("A", "a1", "fr")
	m.Learn("B", "b1", "fr")
	m.Learn("A", "a2", "fr")

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "A|fr", entries[0].Key)
	assert.Equal(t, "a2", entries[0].Translation)
	assert.Equal(t, "B|fr", entries[1].Key)
}

func TestEvictionSkipsSeeds(t *testing.T) {
	m := New(WithCapacity(BuiltinCount() + 2))
	m.Learn("one", "一", "zh-Hans")
	m.Learn("two", "二", "zh-Hans")
	m.Learn("three", "三", "zh-Hans")

	assert.Equal(t, BuiltinCount()+2, m.Len())
	assert.False(t, m.Contains("one", "zh-Hans"))
	assert.True(t, m.Contains("two", "zh-Hans"))
	assert.True(t, m.Contains("three", "zh-Hans"))
	assert.True(t, m.Contains("Ascending", "zh-Hans"))
}

func TestCapacityIsSoftWhenOnlySeeds(t *testing.T) {
	m := New(WithCapacity(3))
	m.Learn("extra", "额外", "zh-Hans")

	assert.Equal(t, BuiltinCount()+1, m.Len())
	assert.True(t, m.Contains("extra", "zh-Hans"))
}

func TestMergeBuiltins(t *testing.T) {
	m := NewEmpty()
	m.Learn("Ascending", "自定义升序", "zh-Hans")

	added := m.MergeBuiltins()
	assert.Equal(t, BuiltinCount()-1, added)

	// 已有的键不被覆盖
	got, _ := m.Lookup("Ascending", "zh-Hans")
	assert.Equal(t, "自定义升序", got)
	assert.Equal(t, 0, m.MergeBuiltins())
}

func TestClear(t *testing.T) {
	m := New()
	m.Lookup("Ascending", "zh-Hans")
	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, Stats{}, m.Stats())
}

func TestSearch(t *testing.T) {
	m := NewEmpty()
	m.Learn("Input Array", "输入数组", "zh-Hans")
	m.Learn("Output Array", "输出数组", "zh-Hans")
	m.Learn("Skill", "技能", "zh-Hans")

	results := m.Search("array", 0)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, r.Key, "Array")
	}
	assert.Len(t, m.Search("array", 1), 1)
	assert.Empty(t, m.Search("zzz", 0))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "memory.json")

	m := New()
	for i := 0; i < 5; i++ {
		m.Learn(fmt.Sprintf("term-%d", i), fmt.Sprintf("术语-%d", i), "zh-Hans")
	}
	m.Lookup("term-0", "zh-Hans")
	m.Lookup("missing", "zh-Hans")
	require.NoError(t, m.Save(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := Load(path)
	require.NoError(t, err)

	// 只保存学习记录，内置词条不落盘
	entries := loaded.Entries()
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("term-%d|zh-Hans", i), e.Key)
		assert.False(t, e.Seed)
	}
	stats := loaded.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.False(t, loaded.Contains("Ascending", "zh-Hans"))
}

func TestLoadMissingFileSeeds(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, BuiltinCount(), m.Len())
}

func TestLoadLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	content := `{"memory": {"Hello": "你好", "Bye|en": "Bye", "bad": 42}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	// 不带语言的旧键只在语言为空时命中
	got, ok := m.Lookup("Hello", "")
	assert.True(t, ok)
	assert.Equal(t, "你好", got)
	_, ok = m.Lookup("Bye", "en")
	assert.True(t, ok)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, translation.Is(err, translation.ErrCodeCachePersistence))
}
