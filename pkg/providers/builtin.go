package providers

import "github.com/nerdneilsfield/go-po-translator/pkg/cost"

// SourceBuiltin 内置目录的来源标记
const SourceBuiltin = "builtin"

var price = cost.Price

// Builtins 返回内置供应商目录
func Builtins() []Descriptor {
	return []Descriptor{
		{
			ID:           "openai",
			DisplayName:  "OpenAI",
			DefaultURL:   "https://api.openai.com/v1",
			DefaultModel: "gpt-4o-mini",
			Source:       SourceBuiltin,
			Models: []ModelInfo{
				{
					ID: "gpt-4o", Name: "GPT-4o",
					ContextWindow: 128000, MaxOutputTokens: 16384,
					InputPrice: 2.5, OutputPrice: 10.0,
					CacheReadPrice: price(1.25), CacheWritePrice: price(3.125),
					SupportsCache: true, Recommended: true,
					Description: "最强大的多模态模型，支持视觉和文本",
				},
				{
					ID: "gpt-4o-mini", Name: "GPT-4o Mini",
					ContextWindow: 128000, MaxOutputTokens: 16384,
					InputPrice: 0.15, OutputPrice: 0.60,
					CacheReadPrice: price(0.075), CacheWritePrice: price(0.1875),
					SupportsCache: true, Recommended: true,
					Description: "性价比最高的小模型，适合批量翻译",
				},
				{
					ID: "gpt-4-turbo", Name: "GPT-4 Turbo",
					ContextWindow: 128000, MaxOutputTokens: 4096,
					InputPrice: 10.0, OutputPrice: 30.0,
					Description: "GPT-4 Turbo 模型，稳定高质量",
				},
				{
					ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo",
					ContextWindow: 16385, MaxOutputTokens: 4096,
					InputPrice: 0.50, OutputPrice: 1.50,
					Description: "经典模型，基础翻译场景",
				},
			},
		},
		{
			ID:           "deepseek",
			DisplayName:  "DeepSeek AI",
			DefaultURL:   "https://api.deepseek.com/v1",
			DefaultModel: "deepseek-chat",
			Source:       SourceBuiltin,
			Models: []ModelInfo{
				{
					ID: "deepseek-chat", Name: "DeepSeek V3.2-Exp",
					ContextWindow: 128000, MaxOutputTokens: 8192,
					InputPrice: 0.28, OutputPrice: 0.42,
					CacheReadPrice: price(0.028), CacheWritePrice: price(0.35),
					SupportsCache: true, Recommended: true,
					Description: "中文优化，支持硬盘缓存",
				},
				{
					ID: "deepseek-reasoner", Name: "DeepSeek Reasoner",
					ContextWindow: 128000, MaxOutputTokens: 65536,
					InputPrice: 0.28, OutputPrice: 0.42,
					CacheReadPrice: price(0.028), CacheWritePrice: price(0.35),
					SupportsCache: true, Recommended: true,
					Description: "思考模式，深度推理，长输出",
				},
				{
					ID: "deepseek-coder", Name: "DeepSeek Coder",
					ContextWindow: 128000, MaxOutputTokens: 4096,
					InputPrice: 0.28, OutputPrice: 0.42,
					CacheReadPrice: price(0.028), CacheWritePrice: price(0.35),
					SupportsCache: true,
					Description: "代码专用模型（兼容），推荐使用 deepseek-chat",
				},
			},
		},
		{
			ID:           "moonshot",
			DisplayName:  "Moonshot AI",
			DefaultURL:   "https://api.moonshot.cn/v1",
			DefaultModel: "kimi-k2-0711-preview",
			Source:       SourceBuiltin,
			Models: []ModelInfo{
				{
					ID: "kimi-k2-0711-preview", Name: "Kimi K2 0711",
					ContextWindow: 131072, MaxOutputTokens: 16384,
					InputPrice: 0.6, OutputPrice: 2.5,
					CacheReadPrice: price(0.15), CacheWritePrice: price(0.75),
					SupportsCache: true, Recommended: true,
					Description: "Kimi K2 标准版，128K上下文",
				},
				{
					ID: "kimi-k2-0905-preview", Name: "Kimi K2 0905",
					ContextWindow: 262144, MaxOutputTokens: 262144,
					InputPrice: 0.6, OutputPrice: 2.5,
					CacheReadPrice: price(0.15), CacheWritePrice: price(0.75),
					SupportsCache: true,
					Description: "256K上下文，超长输出",
				},
				{
					ID: "kimi-k2-thinking", Name: "Kimi K2 Thinking",
					ContextWindow: 262144, MaxOutputTokens: 262144,
					InputPrice: 0.6, OutputPrice: 2.5,
					CacheReadPrice: price(0.15), CacheWritePrice: price(0.75),
					SupportsCache: true,
					Description: "Kimi K2 思考模式，深度推理",
				},
				{
					ID: "kimi-k2-turbo-preview", Name: "Kimi K2 Turbo",
					ContextWindow: 262144, MaxOutputTokens: 262144,
					InputPrice: 2.4, OutputPrice: 10.0,
					CacheReadPrice: price(0.6), CacheWritePrice: price(3.0),
					SupportsCache: true,
					Description: "Kimi K2 Turbo 高速模式",
				},
			},
		},
		{
			ID:           "zhipuai",
			DisplayName:  "智谱AI",
			DefaultURL:   "https://open.bigmodel.cn/api/paas/v4",
			DefaultModel: "glm-4.7-flash",
			Source:       SourceBuiltin,
			Models: []ModelInfo{
				{
					ID: "glm-4.7-flash", Name: "GLM-4.7-Flash",
					ContextWindow: 200000, MaxOutputTokens: 131072,
					CacheReadPrice: price(0), CacheWritePrice: price(0),
					SupportsCache: true, Recommended: true,
					Description: "免费模型，200K上下文",
				},
				{
					ID: "glm-4.5-air", Name: "GLM-4.5-Air",
					ContextWindow: 131072, MaxOutputTokens: 98304,
					InputPrice: 0.2, OutputPrice: 1.1,
					CacheReadPrice: price(0.03), CacheWritePrice: price(0),
					SupportsCache: true, Recommended: true,
					Description: "超低成本模型，缓存写入免费",
				},
				{
					ID: "glm-4.6", Name: "GLM-4.6",
					ContextWindow: 204800, MaxOutputTokens: 131072,
					InputPrice: 0.6, OutputPrice: 2.2,
					CacheReadPrice: price(0.11), CacheWritePrice: price(0),
					SupportsCache: true,
					Description: "标准模型，200K上下文",
				},
			},
		},
		{
			ID:           "minimax",
			DisplayName:  "MiniMax",
			DefaultURL:   "https://api.minimax.io/anthropic/v1",
			DefaultModel: "MiniMax-M2.1",
			Source:       SourceBuiltin,
			Models: []ModelInfo{
				{
					ID: "MiniMax-M2.1", Name: "MiniMax-M2.1",
					ContextWindow: 204800, MaxOutputTokens: 131072,
					InputPrice: 0.3, OutputPrice: 1.2,
					Recommended: true,
					Description: "204K上下文，超长输出",
				},
				{
					ID: "MiniMax-M2", Name: "MiniMax-M2",
					ContextWindow: 196608, MaxOutputTokens: 128000,
					InputPrice: 0.3, OutputPrice: 1.2,
					Description: "标准版本，196K上下文",
				},
			},
		},
		{
			ID:           "ollama",
			DisplayName:  "Ollama (本地)",
			DefaultURL:   "http://localhost:11434/v1",
			DefaultModel: "qwen2.5:7b",
			Source:       SourceBuiltin,
			Models: []ModelInfo{
				{
					ID: "qwen2.5:7b", Name: "Qwen2.5 7B",
					ContextWindow: 32768, MaxOutputTokens: 8192,
					Recommended: true,
					Description: "本地运行，免费，中文效果较好",
				},
				{
					ID: "llama3.1:8b", Name: "Llama 3.1 8B",
					ContextWindow: 131072, MaxOutputTokens: 8192,
					Description: "本地运行，免费",
				},
			},
		},
	}
}
