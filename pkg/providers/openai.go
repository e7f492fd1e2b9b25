// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OpenAIProvider speaks the OpenAI-compatible /chat/completions
// protocol. Any endpoint exposing that surface works (OpenRouter,
// DeepSeek, local gateways).
type OpenAIProvider struct {
	client  *resty.Client
	apiBase string
	model   string
}

func NewOpenAIProvider(apiKey, apiBase, model, proxy string) *OpenAIProvider {
	base := strings.TrimSuffix(apiBase, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}

	client := resty.New().
		SetTimeout(180 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+apiKey)
	if proxy != "" {
		client.SetProxy(proxy)
	}

	return &OpenAIProvider{
		client:  client,
		apiBase: base,
		model:   model,
	}
}

// DefaultModel is the model used when the caller passes "".
func (p *OpenAIProvider) DefaultModel() string {
	return p.model
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, model string, opts map[string]interface{}) (*Response, error) {
	if model == "" {
		model = p.model
	}

	body := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	for k, v := range opts {
		body[k] = v
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(p.apiBase + "/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}

	raw := resp.String()
	if resp.IsError() {
		apiMsg := gjson.Get(raw, "error.message").String()
		if apiMsg == "" {
			apiMsg = resp.Status()
		}
		return nil, fmt.Errorf("chat request failed: %s", apiMsg)
	}

	choice := gjson.Get(raw, "choices.0")
	if !choice.Exists() {
		return nil, fmt.Errorf("chat response has no choices")
	}

	return &Response{
		Content:      choice.Get("message.content").String(),
		FinishReason: choice.Get("finish_reason").String(),
	}, nil
}
