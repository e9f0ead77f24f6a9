package translator

import "github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"

// 对话历史保留的消息数（不含 system），约 10 轮
const maxHistoryMessages = 20

// messagesFor 构建请求消息：没有历史时发送 system + user，否则在历史后追加 user
func (t *BatchTranslator) messagesFor(userPrompt string) []openai.Message {
	user := openai.Message{Role: openai.RoleUser, Content: userPrompt}
	if len(t.history) == 0 {
		return []openai.Message{
			{Role: openai.RoleSystem, Content: t.systemPrompt},
			user,
		}
	}

	messages := make([]openai.Message, 0, len(t.history)+1)
	messages = append(messages, t.history...)
	return append(messages, user)
}

// updateHistory 追加一轮对话，超出上限时保留 system 和最近的消息
func (t *BatchTranslator) updateHistory(userPrompt, response string) {
	if len(t.history) == 0 {
		t.history = append(t.history, openai.Message{Role: openai.RoleSystem, Content: t.systemPrompt})
	}
	t.history = append(t.history,
		openai.Message{Role: openai.RoleUser, Content: userPrompt},
		openai.Message{Role: openai.RoleAssistant, Content: response},
	)

	if len(t.history) > maxHistoryMessages+1 {
		trimmed := make([]openai.Message, 0, maxHistoryMessages+1)
		trimmed = append(trimmed, t.history[0])
		trimmed = append(trimmed, t.history[len(t.history)-maxHistoryMessages:]...)
		t.history = trimmed
	}
}

// History 返回对话历史的副本
func (t *BatchTranslator) History() []openai.Message {
	return append([]openai.Message(nil), t.history...)
}

// ClearHistory 清空对话历史
func (t *BatchTranslator) ClearHistory() {
	t.history = nil
}
