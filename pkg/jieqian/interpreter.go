// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package jieqian

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhufengning/lingbot/pkg/logger"
	"github.com/zhufengning/lingbot/pkg/providers"
)

type Status int

const (
	StatusOk Status = iota
	StatusBusy
	StatusTimedOut
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusBusy:
		return "busy"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// Outcome is the result of one interpretation request. Answer is set
// for every status except Busy; failure answers are user-facing text.
type Outcome struct {
	Status Status
	Answer string
}

const (
	unavailableText = "当前无法连接到AI服务，请稍后重试。"
	timeoutText     = "AI响应超时，请稍后重试。"
	errorText       = "解签过程中发生错误，请稍后重试。"
)

// Interpreter turns a drawn slip plus a user question into an answer
// through the configured LLM provider. One request per user runs at a
// time; everything that finishes, including failures, is persisted.
type Interpreter struct {
	registry      *providers.Registry
	store         *Store
	guard         *Guard
	providerID    string
	personaPrompt string
	stylePrompt   string
	timeout       time.Duration
}

func NewInterpreter(registry *providers.Registry, store *Store, guard *Guard, providerID, personaPrompt, stylePrompt string, timeout time.Duration) *Interpreter {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Interpreter{
		registry:      registry,
		store:         store,
		guard:         guard,
		providerID:    providerID,
		personaPrompt: personaPrompt,
		stylePrompt:   stylePrompt,
		timeout:       timeout,
	}
}

// IsBusy reports whether a request of the user is already running.
func (it *Interpreter) IsBusy(userID string) bool {
	return it.guard.Busy(userID)
}

// Interpret answers the question against the slip's content. Busy
// means another request of the same user is still running; nothing is
// called or persisted in that case.
func (it *Interpreter) Interpret(ctx context.Context, userID, slipContent, question string) Outcome {
	if !it.guard.TryEnter(userID) {
		return Outcome{Status: StatusBusy}
	}
	defer it.guard.Exit(userID)

	ctx, cancel := context.WithTimeout(ctx, it.timeout)
	defer cancel()

	outcome := it.callProvider(ctx, slipContent, question)

	if err := it.store.Append(userID, question, outcome.Answer); err != nil {
		logger.ErrorCF("jieqian", "failed to persist interpretation", map[string]interface{}{
			"user_id": userID,
			"error":   err,
		})
		outcome.Status = StatusFailed
		outcome.Answer += "\n⚠️ 本次解签结果未能保存到历史记录。"
	}
	return outcome
}

func (it *Interpreter) callProvider(ctx context.Context, slipContent, question string) Outcome {
	provider, ok := it.registry.Resolve(ctx, it.providerID)
	if !ok {
		logger.ErrorC("jieqian", "no usable LLM provider")
		return Outcome{Status: StatusFailed, Answer: unavailableText}
	}

	messages := make([]providers.Message, 0, 3)
	if it.personaPrompt != "" {
		messages = append(messages, providers.Message{Role: "system", Content: it.personaPrompt})
	}
	if it.stylePrompt != "" {
		messages = append(messages, providers.Message{Role: "system", Content: it.stylePrompt})
	}
	messages = append(messages, providers.Message{Role: "user", Content: buildPrompt(slipContent, question)})

	resp, err := provider.Chat(ctx, messages, "", nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.WarnC("jieqian", "interpretation timed out")
			return Outcome{Status: StatusTimedOut, Answer: timeoutText}
		}
		logger.ErrorCF("jieqian", "interpretation failed", map[string]interface{}{"error": err})
		return Outcome{Status: StatusFailed, Answer: errorText}
	}

	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return Outcome{Status: StatusFailed, Answer: unavailableText}
	}
	return Outcome{Status: StatusOk, Answer: answer}
}

func buildPrompt(slipContent, question string) string {
	if slipContent == "" {
		return fmt.Sprintf("请为以下问题提供指导：%s", question)
	}
	return fmt.Sprintf(`根据以下观音灵签内容，为用户的问题提供解读和指导：

灵签内容：
%s

用户问题：%s

请结合灵签的寓意，为用户提供智慧的解读和人生指导。`, slipContent, question)
}
