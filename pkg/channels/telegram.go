// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package channels

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/logger"
)

type TelegramChannel struct {
	*BaseChannel
	config config.TelegramConfig
	bot    *tgbotapi.BotAPI
	cancel context.CancelFunc
}

func NewTelegramChannel(cfg config.TelegramConfig, messageBus *bus.MessageBus) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token not configured")
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", messageBus, cfg.AllowFrom),
		config:      cfg,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(c.config.Token)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	c.bot = bot

	logger.InfoCF("telegram", "Telegram channel started", map[string]interface{}{
		"username": bot.Self.UserName,
	})

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	go c.consumeUpdates(runCtx, updates)

	c.setRunning(true)
	return nil
}

func (c *TelegramChannel) consumeUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			c.handleUpdate(update.Message)
		}
	}
}

func (c *TelegramChannel) handleUpdate(m *tgbotapi.Message) {
	content := strings.TrimSpace(m.Text)
	if content == "" {
		return
	}

	senderID := strconv.FormatInt(m.From.ID, 10)
	if !c.IsAllowed(senderID) {
		logger.DebugCF("telegram", "Message ignored (sender not allowed)", map[string]interface{}{
			"sender": senderID,
		})
		return
	}

	senderName := m.From.UserName
	if senderName == "" {
		senderName = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
	}

	chatID := strconv.FormatInt(m.Chat.ID, 10)
	groupID := ""
	if m.Chat.IsGroup() || m.Chat.IsSuperGroup() {
		groupID = chatID
	}

	var mentions []string
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		replyTo := m.ReplyToMessage.From
		if replyTo.ID != c.bot.Self.ID {
			mentions = append(mentions, strconv.FormatInt(replyTo.ID, 10))
		}
	}

	c.Publish(bus.InboundMessage{
		Channel:    c.Name(),
		SenderID:   senderID,
		SenderName: senderName,
		ChatID:     chatID,
		GroupID:    groupID,
		Content:    content,
		Mentions:   mentions,
	})
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram channel")
	c.setRunning(false)

	if c.cancel != nil {
		c.cancel()
	}
	if c.bot != nil {
		c.bot.StopReceivingUpdates()
	}
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if c.bot == nil {
		return fmt.Errorf("telegram bot not started")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid Telegram chat ID: %s", msg.ChatID)
	}

	out := tgbotapi.NewMessage(chatID, msg.Content)
	if _, err := c.bot.Send(out); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}
