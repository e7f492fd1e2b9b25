// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package providers

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Response struct {
	Content      string
	FinishReason string
}

// LLMProvider is a chat-completion backend. Implementations honor ctx
// cancellation and return an error rather than blocking past it.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, model string, opts map[string]interface{}) (*Response, error)
}
