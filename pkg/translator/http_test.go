package translator_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-po-translator/internal/test"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-po-translator/pkg/tm"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/nerdneilsfield/go-po-translator/pkg/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPTranslator(t *testing.T, server *test.MockChatServer, opts ...translator.Option) *translator.BatchTranslator {
	t.Helper()
	client, err := openai.New(openai.Config{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	base := []translator.Option{
		translator.WithMemory(tm.NewEmpty()),
		translator.WithPricing(providers.NewBuiltinRegistry()),
		translator.WithProviderModel("openai", "gpt-4o-mini"),
		translator.WithRetryConfig(retry.Config{
			MaxAttempts:   3,
			InitialDelay:  time.Millisecond,
			BackoffFactor: 2,
			MaxDelay:      5 * time.Millisecond,
		}),
	}
	tr, err := translator.New(client, append(base, opts...)...)
	require.NoError(t, err)
	return tr
}

func TestTranslateOverHTTP(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.Enqueue(test.Reply{Content: test.NumberedReply("X", "Y")})
	tr := newHTTPTranslator(t, server)

	results, err := tr.Translate(context.Background(), []string{"Hello", "World", "Hello"}, "zh-Hans", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "X"}, results)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v1/chat/completions", requests[0].Path)
	assert.Equal(t, "Bearer sk-test", requests[0].Authorization)
	assert.Equal(t, "gpt-4o-mini", requests[0].Model)
	assert.Equal(t, "翻译为简体中文（每行一条，带序号）:\n1. Hello\n2. World\n", requests[0].UserPrompt())

	stats := tr.TokenStats()
	assert.Equal(t, 100, stats.InputTokens)
	assert.Equal(t, 50, stats.OutputTokens)
	assert.Greater(t, stats.Cost, 0.0)
}

func TestTranslateOverHTTPAuthFailsFast(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.SetResponder(func(test.CapturedRequest) test.Reply {
		return test.Reply{Status: http.StatusUnauthorized, Content: "Incorrect API key provided"}
	})
	tr := newHTTPTranslator(t, server)

	_, err := tr.Translate(context.Background(), []string{"Hello"}, "zh-Hans", nil, nil)
	require.Error(t, err)
	assert.True(t, translation.Is(err, translation.ErrCodeAuth))
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Equal(t, 1, server.RequestCount())
}

func TestTranslateOverHTTPRetriesMalformedBody(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.Enqueue(test.Reply{RawBody: "<html>bad gateway</html>"})
	server.SetResponder(test.EchoResponder("译:"))
	tr := newHTTPTranslator(t, server)

	results, err := tr.Translate(context.Background(), []string{"Start", "Stop"}, "zh-Hans", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"译:Start", "译:Stop"}, results)
	assert.Equal(t, 2, server.RequestCount())
}

func TestTranslateOverHTTPChunksInOrder(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.SetResponder(test.EchoResponder("译:"))
	tr := newHTTPTranslator(t, server, translator.WithChunkSize(2))

	texts := []string{"a", "b", "c", "d", "e"}
	var indices []int
	results, err := tr.Translate(context.Background(), texts, "zh-Hans", func(i int, _ string) {
		indices = append(indices, i)
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"译:a", "译:b", "译:c", "译:d", "译:e"}, results)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices)
	assert.Equal(t, 3, server.RequestCount())
}
