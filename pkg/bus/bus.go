// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package bus

import "context"

// InboundMessage is one user command as delivered by a channel.
// ChatID uses the channel's routing form ("group:123", "private:456",
// or a channel-native id); GroupID is set only for group messages.
type InboundMessage struct {
	Channel    string
	SenderID   string
	SenderName string
	ChatID     string
	GroupID    string
	Content    string
	Mentions   []string
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
}

type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, 128),
		outbound: make(chan OutboundMessage, 128),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

// ConsumeInbound blocks until a message arrives or ctx is cancelled.
// The second return value is false when the context ended.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg := <-b.inbound:
		return msg, true
	}
}

func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

func (b *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case <-ctx.Done():
		return OutboundMessage{}, false
	case msg := <-b.outbound:
		return msg, true
	}
}
