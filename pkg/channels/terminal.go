// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/logger"
)

// TerminalChannel reads commands from an interactive prompt. Useful
// for trying slips and interpretations without any chat platform.
type TerminalChannel struct {
	*BaseChannel
	config config.TerminalConfig
	rl     *readline.Instance
	cancel context.CancelFunc
}

func NewTerminalChannel(cfg config.TerminalConfig, messageBus *bus.MessageBus) (*TerminalChannel, error) {
	return &TerminalChannel{
		BaseChannel: NewBaseChannel("terminal", messageBus, nil),
		config:      cfg,
	}, nil
}

func (c *TerminalChannel) Start(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lingbot> ",
		HistoryFile:     "/tmp/lingbot_history",
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	c.rl = rl

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.readLoop(runCtx)

	c.setRunning(true)
	logger.InfoC("terminal", "Terminal channel started")
	return nil
}

func (c *TerminalChannel) readLoop(ctx context.Context) {
	userID := c.config.UserID
	if userID == "" {
		userID = "terminal"
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				logger.InfoC("terminal", "EOF received, terminal reader exiting")
			} else {
				logger.ErrorCF("terminal", "Readline error", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		c.Publish(bus.InboundMessage{
			Channel:    c.Name(),
			SenderID:   userID,
			SenderName: userID,
			ChatID:     userID,
			Content:    line,
		})
	}
}

func (c *TerminalChannel) Stop(ctx context.Context) error {
	logger.InfoC("terminal", "Stopping terminal channel")
	c.setRunning(false)

	if c.cancel != nil {
		c.cancel()
	}
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

func (c *TerminalChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	fmt.Println(msg.Content)
	if c.rl != nil {
		c.rl.Refresh()
	}
	return nil
}
