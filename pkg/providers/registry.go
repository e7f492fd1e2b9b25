// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package providers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zhufengning/lingbot/pkg/logger"
)

// Registry holds the configured provider endpoints by id plus the
// fallback default.
type Registry struct {
	mu        sync.RWMutex
	byID      map[string]LLMProvider
	defaultID string
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]LLMProvider)}
}

func (r *Registry) Register(id string, p LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = p
}

func (r *Registry) SetDefault(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultID = id
}

func (r *Registry) Get(id string) (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

func (r *Registry) Default() (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[r.defaultID]
	return p, ok
}

// Resolve picks the provider for a request: the preferred id when it
// is configured and answers a liveness ping, otherwise the default.
func (r *Registry) Resolve(ctx context.Context, preferredID string) (LLMProvider, bool) {
	if preferredID != "" {
		if p, ok := r.Get(preferredID); ok {
			if Ping(ctx, p) {
				return p, true
			}
			logger.WarnCF("providers", "preferred provider failed liveness check", map[string]interface{}{
				"provider_id": preferredID,
			})
		}
	}
	return r.Default()
}

// Ping sends a minimal round trip to verify the endpoint is usable.
func Ping(ctx context.Context, p LLMProvider) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := p.Chat(pingCtx, []Message{
		{Role: "user", Content: "reply *PONG* only"},
	}, "", map[string]interface{}{"max_tokens": 16})
	if err != nil {
		return false
	}
	return strings.TrimSpace(resp.Content) != ""
}
