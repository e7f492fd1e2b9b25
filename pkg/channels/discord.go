// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/zhufengning/lingbot/pkg/bus"
	"github.com/zhufengning/lingbot/pkg/config"
	"github.com/zhufengning/lingbot/pkg/logger"
)

type DiscordChannel struct {
	*BaseChannel
	config  config.DiscordConfig
	session *discordgo.Session
}

func NewDiscordChannel(cfg config.DiscordConfig, messageBus *bus.MessageBus) (*DiscordChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token not configured")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", messageBus, cfg.AllowFrom),
		config:      cfg,
		session:     session,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	c.session.AddHandler(c.onMessageCreate)
	c.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	c.setRunning(true)
	logger.InfoCF("discord", "Discord channel started", map[string]interface{}{
		"username": c.session.State.User.Username,
	})
	return nil
}

func (c *DiscordChannel) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	if !c.IsAllowed(m.Author.ID) {
		logger.DebugCF("discord", "Message ignored (sender not allowed)", map[string]interface{}{
			"sender": m.Author.ID,
		})
		return
	}

	senderName := m.Author.Username
	if m.Member != nil && m.Member.Nick != "" {
		senderName = m.Member.Nick
	}

	var mentions []string
	for _, u := range m.Mentions {
		if s.State.User != nil && u.ID == s.State.User.ID {
			// Mentioning the bot addresses it, it is not a command target.
			content = strings.TrimSpace(strings.ReplaceAll(content, "<@"+u.ID+">", ""))
			continue
		}
		mentions = append(mentions, u.ID)
		content = strings.TrimSpace(strings.ReplaceAll(content, "<@"+u.ID+">", ""))
	}

	c.Publish(bus.InboundMessage{
		Channel:    c.Name(),
		SenderID:   m.Author.ID,
		SenderName: senderName,
		ChatID:     m.ChannelID,
		GroupID:    m.GuildID,
		Content:    content,
		Mentions:   mentions,
	})
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord channel")
	c.setRunning(false)
	return c.session.Close()
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord channel not running")
	}

	if _, err := c.session.ChannelMessageSend(msg.ChatID, msg.Content); err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	return nil
}
