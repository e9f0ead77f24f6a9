package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerdneilsfield/go-po-translator/internal/cli"
	"github.com/nerdneilsfield/go-po-translator/internal/config"
	"github.com/nerdneilsfield/go-po-translator/internal/pofile"
	"github.com/nerdneilsfield/go-po-translator/internal/stats"
	"github.com/nerdneilsfield/go-po-translator/internal/test"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const inputPO = `msgid ""
msgstr ""
"Project-Id-Version: vault 1.0\n"
"Content-Type: text/plain; charset=UTF-8\n"

#: ui/door.go:10
msgid "Open the vault"
msgstr ""

msgctxt "tooltip"
msgid "Open the vault"
msgstr ""

msgid "Feed the dragon"
msgstr ""

msgid "Already done"
msgstr "已完成"

msgid "coin"
msgid_plural "coins"
msgstr[0] ""
`

type env struct {
	dir        string
	configPath string
	dataDir    string
	server     *test.MockChatServer
}

// newEnv 准备临时配置、数据目录和模拟服务器
func newEnv(t *testing.T, customize ...func(cfg *config.Config)) *env {
	t.Helper()
	server := test.NewMockChatServer(t)
	cfg := test.CreateTestConfig(t, server.URL)
	for _, fn := range customize {
		fn(cfg)
	}
	return &env{
		dir:        t.TempDir(),
		configPath: test.WriteTestConfig(t, cfg),
		dataDir:    cfg.DataDir,
		server:     server,
	}
}

func (e *env) writePO(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, "messages.po")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run 在进程内执行命令，返回标准输出和错误
func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand("test", "abc123", "2026-10-01")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *env) recentRuns(t *testing.T) []stats.RunRecord {
	t.Helper()
	db, err := stats.NewDatabase(filepath.Join(e.dataDir, "usage.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	return runs
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit abc123")
	assert.Contains(t, out, "built 2026-10-01")
}

func TestTranslateWritesOutput(t *testing.T) {
	e := newEnv(t)
	e.server.SetResponder(test.EchoResponder("译:"))
	input := e.writePO(t, inputPO)

	out, err := e.run(t, "translate", input)
	require.NoError(t, err, out)
	assert.Contains(t, out, "翻译完成")
	assert.Contains(t, out, "AI 请求")

	output := filepath.Join(e.dir, "messages_translated.po")
	po, err := pofile.ParseFile(output)
	require.NoError(t, err)

	assert.Equal(t, "译:Open the vault", po.Lookup("", "Open the vault").MsgStr)
	assert.Equal(t, "译:Open the vault", po.Lookup("tooltip", "Open the vault").MsgStr)
	assert.Equal(t, "译:Feed the dragon", po.Lookup("", "Feed the dragon").MsgStr)
	assert.Equal(t, "已完成", po.Lookup("", "Already done").MsgStr)
	assert.Equal(t, "", po.Lookup("", "coin").MsgStrPlural[0])
	assert.Equal(t, "zh-Hans", po.HeaderField("Language"))

	// 重复的 msgid 只请求一次
	require.Equal(t, 1, e.server.RequestCount())
	prompt := e.server.Requests()[0].UserPrompt()
	assert.Equal(t, 1, strings.Count(prompt, "Open the vault"))
	assert.Equal(t, "Bearer "+test.TestAPIKey, e.server.Requests()[0].Authorization)

	assert.FileExists(t, filepath.Join(e.dataDir, "tm.json"))

	runs := e.recentRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, stats.StatusCompleted, runs[0].Status)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, 1, runs[0].Deduplicated)
	assert.Equal(t, 2, runs[0].AITranslated)
	assert.Equal(t, "deepseek-chat", runs[0].Model)
	assert.Greater(t, runs[0].Cost, 0.0)
}

func TestTranslateUsesMemoryOnSecondRun(t *testing.T) {
	e := newEnv(t)
	e.server.SetResponder(test.EchoResponder("译:"))
	input := e.writePO(t, inputPO)

	_, err := e.run(t, "translate", input, filepath.Join(e.dir, "first.po"))
	require.NoError(t, err)
	require.Equal(t, 1, e.server.RequestCount())

	out, err := e.run(t, "translate", input, filepath.Join(e.dir, "second.po"), "--sources")
	require.NoError(t, err, out)
	assert.Equal(t, 1, e.server.RequestCount(), "短语应全部命中记忆库")
	assert.Contains(t, out, "tm")

	po, err := pofile.ParseFile(filepath.Join(e.dir, "second.po"))
	require.NoError(t, err)
	assert.Equal(t, "译:Feed the dragon", po.Lookup("", "Feed the dragon").MsgStr)
}

func TestTranslateRetriesBrokenResponse(t *testing.T) {
	e := newEnv(t)
	e.server.Enqueue(test.Reply{RawBody: `{"id": "x", "choices": []}`})
	e.server.SetResponder(test.EchoResponder("译:"))
	input := e.writePO(t, inputPO)

	out, err := e.run(t, "translate", input)
	require.NoError(t, err, out)
	assert.Equal(t, 2, e.server.RequestCount())
	assert.Contains(t, out, "失败 1 次")
	assert.Contains(t, out, translation.ErrCodeResponseParse)
}

func TestTranslateDryRun(t *testing.T) {
	e := newEnv(t)
	input := e.writePO(t, inputPO)

	out, err := e.run(t, "translate", input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, "预估费用")
	assert.Equal(t, 0, e.server.RequestCount())
	assert.NoFileExists(t, filepath.Join(e.dir, "messages_translated.po"))

	runs := e.recentRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, stats.StatusDryRun, runs[0].Status)
}

func TestTranslateNothingPending(t *testing.T) {
	e := newEnv(t)
	input := e.writePO(t, "msgid \"Done\"\nmsgstr \"完成\"\n")

	out, err := e.run(t, "translate", input)
	require.NoError(t, err)
	assert.Contains(t, out, "没有需要翻译的条目")
	assert.Equal(t, 0, e.server.RequestCount())
}

func TestTranslateAuthErrorRecordsFailedRun(t *testing.T) {
	e := newEnv(t)
	e.server.Enqueue(test.Reply{Status: 401, Content: "invalid api key"})
	input := e.writePO(t, inputPO)

	_, err := e.run(t, "translate", input)
	require.Error(t, err)
	assert.Equal(t, translation.ErrCodeAuth, translation.CodeOf(err))
	assert.Equal(t, 1, e.server.RequestCount(), "认证错误不重试")
	assert.NoFileExists(t, filepath.Join(e.dir, "messages_translated.po"))

	runs := e.recentRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, stats.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "AUTH")
}

func TestExecutePrintsHint(t *testing.T) {
	e := newEnv(t)
	e.server.Enqueue(test.Reply{Status: 401, Content: "invalid api key"})
	input := e.writePO(t, inputPO)

	root := cli.NewRootCommand("test", "abc123", "2026-10-01")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", e.configPath, "translate", input})

	var stderr bytes.Buffer
	code := cli.Execute(root, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "❌")
	assert.Contains(t, stderr.String(), "api_key")
}

func TestUnknownProviderSuggestsAlternatives(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) {
		cfg.Provider = "deepsek"
		cfg.BaseURL = ""
	})
	input := e.writePO(t, inputPO)

	_, err := e.run(t, "translate", input)
	require.Error(t, err)
	assert.Equal(t, translation.ErrCodeConfig, translation.CodeOf(err))
	assert.Contains(t, err.Error(), "deepseek")
	assert.Equal(t, 0, e.server.RequestCount())
}

func TestEstimate(t *testing.T) {
	e := newEnv(t)
	input := e.writePO(t, inputPO)

	out, err := e.run(t, "estimate", input, "--cache-ratio", "0.5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "费用预估")
	assert.Contains(t, out, "合计")
	assert.Contains(t, out, "$")
	assert.Equal(t, 0, e.server.RequestCount())

	_, err = e.run(t, "estimate", input, "--cache-ratio", "2")
	require.Error(t, err)
	assert.Equal(t, translation.ErrCodeConfig, translation.CodeOf(err))
}

func TestTMCommands(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "tm", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "已清空")

	out, err = e.run(t, "tm", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "0 / ")

	out, err = e.run(t, "tm", "merge-builtins")
	require.NoError(t, err)
	assert.Contains(t, out, "新增")

	out, err = e.run(t, "tm", "search", "zzzz-no-such-text")
	require.NoError(t, err)
	assert.Contains(t, out, "没有匹配")
}

func TestTMSearchFindsLearnedText(t *testing.T) {
	e := newEnv(t)
	e.server.SetResponder(test.EchoResponder("译:"))
	input := e.writePO(t, inputPO)
	_, err := e.run(t, "translate", input)
	require.NoError(t, err)

	out, err := e.run(t, "tm", "search", "dragon")
	require.NoError(t, err)
	assert.Contains(t, out, "Feed the dragon")
	assert.Contains(t, out, "译:Feed the dragon")
	assert.Contains(t, out, "zh-Hans")
}

func TestProvidersWithPlugin(t *testing.T) {
	e := newEnv(t)
	pluginDir := filepath.Join(e.dir, "plugins", "acme")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	plugin := `[plugin]
id = "acme"
name = "Acme AI"
version = "1.0.0"
api_version = "1.0"

[provider]
display_name = "Acme AI"
default_url = "https://api.acme.test/v1"
default_model = "acme-small"

[[provider.models]]
id = "acme-small"
name = "Acme Small"
input_price = 0.1
output_price = 0.2
context_window = 32000
`
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.toml"), []byte(plugin), 0o644))

	out, err := e.run(t, "providers", "--plugins", filepath.Join(e.dir, "plugins"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "deepseek-chat")
	assert.Contains(t, out, "gpt-")
	assert.Contains(t, out, "acme-small")
}

func TestConfigSetAndShow(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "config", "set", "chunk_size", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "chunk_size = 10")

	data, err := os.ReadFile(e.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chunk_size: 10")

	out, err = e.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "chunk_size")
	assert.NotContains(t, out, test.TestAPIKey)

	_, err = e.run(t, "config", "set", "chunk_size", "0")
	require.Error(t, err)
	assert.Equal(t, translation.ErrCodeConfig, translation.CodeOf(err))

	_, err = e.run(t, "config", "set", "no_such_key", "1")
	require.Error(t, err)
}

func TestUsageAndReset(t *testing.T) {
	e := newEnv(t)
	e.server.SetResponder(test.EchoResponder("译:"))
	input := e.writePO(t, inputPO)
	_, err := e.run(t, "translate", input)
	require.NoError(t, err)

	out, err := e.run(t, "usage", "--days", "3", "--recent", "5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "deepseek-chat")
	assert.Contains(t, out, "zh-Hans")

	out, err = e.run(t, "usage", "--reset")
	require.NoError(t, err)
	assert.Contains(t, out, "已取消")
	assert.Len(t, e.recentRuns(t), 1)

	out, err = e.run(t, "usage", "--reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "已清空")
	assert.Empty(t, e.recentRuns(t))
}

func TestTranslateMultilineMessageStaysOnOnePromptLine(t *testing.T) {
	e := newEnv(t)
	// 第三条译文丢了末尾的 \n
	e.server.Enqueue(test.Reply{Content: "1. 第一行\\n第二行\\n\n2. 世界\n3. 完成\n"})
	input := e.writePO(t, `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgid ""
"Line one\n"
"Line two\n"
msgstr ""

msgid "World"
msgstr ""

msgid "Done\n"
msgstr ""
`)

	out, err := e.run(t, "translate", input)
	require.NoError(t, err, out)

	require.Equal(t, 1, e.server.RequestCount())
	prompt := e.server.Requests()[0].UserPrompt()
	assert.Contains(t, prompt, `1. Line one\nLine two\n`)
	assert.Contains(t, prompt, "2. World")
	assert.Contains(t, prompt, `3. Done\n`)

	output := filepath.Join(e.dir, "messages_translated.po")
	po, err := pofile.ParseFile(output)
	require.NoError(t, err)
	assert.Equal(t, "第一行\n第二行\n", po.Lookup("", "Line one\nLine two\n").MsgStr)
	assert.Equal(t, "世界", po.Lookup("", "World").MsgStr)
	assert.Equal(t, "完成\n", po.Lookup("", "Done\n").MsgStr)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"第一行\n"`)
	assert.Contains(t, string(raw), `"第二行\n"`)
}

func TestDebugLogCarriesCommandField(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "po-translator.log")
	e := newEnv(t, func(cfg *config.Config) {
		cfg.LogFile = logPath
		cfg.LogFormat = "json"
	})

	out, err := e.run(t, "--debug", "tm", "stats")
	require.NoError(t, err, out)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "配置已加载")
	assert.Contains(t, string(data), `"command":"stats"`)
	assert.Contains(t, string(data), `"api_key":"sk-t...cdef"`)
}
