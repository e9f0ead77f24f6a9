package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/retry"
)

type fakeReply struct {
	content string
	err     error
}

// fakeClient 按脚本返回响应，脚本用完后调用 fallback
type fakeClient struct {
	mu       sync.Mutex
	replies  []fakeReply
	fallback func(req openai.ChatRequest) (*openai.ChatResponse, error)
	requests []openai.ChatRequest
}

func (c *fakeClient) Chat(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
	c.mu.Lock()
	req.Messages = append([]openai.Message(nil), req.Messages...)
	c.requests = append(c.requests, req)
	var reply *fakeReply
	if len(c.replies) > 0 {
		reply = &c.replies[0]
		c.replies = c.replies[1:]
	}
	fallback := c.fallback
	c.mu.Unlock()

	if reply == nil {
		if fallback != nil {
			return fallback(req)
		}
		return nil, fmt.Errorf("没有脚本化响应")
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &openai.ChatResponse{
		Content: reply.content,
		Model:   req.Model,
		Usage:   openai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func (c *fakeClient) enqueue(replies ...fakeReply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *fakeClient) request(i int) openai.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[i]
}

// echo 把用户提示中的每个编号条目加上前缀返回
func echo(prefix string) func(req openai.ChatRequest) (*openai.ChatResponse, error) {
	return func(req openai.ChatRequest) (*openai.ChatResponse, error) {
		user := req.Messages[len(req.Messages)-1].Content
		var sb strings.Builder
		n := 0
		for _, line := range strings.Split(user, "\n")[1:] {
			dot := strings.Index(line, ". ")
			if dot <= 0 {
				continue
			}
			n++
			fmt.Fprintf(&sb, "%d. %s%s\n", n, prefix, line[dot+2:])
		}
		return &openai.ChatResponse{
			Content: sb.String(),
			Usage:   openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}, nil
	}
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      10 * time.Millisecond,
	}
}
