// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package channels

import (
	"context"
	"sync/atomic"

	"github.com/zhufengning/lingbot/pkg/bus"
)

// Channel is one chat transport. Implementations publish inbound
// command messages on the bus and deliver outbound replies.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
}

// BaseChannel carries the state every channel shares: the bus, the
// sender allowlist and the running flag.
type BaseChannel struct {
	name      string
	msgBus    *bus.MessageBus
	allowFrom []string
	running   atomic.Bool
}

func NewBaseChannel(name string, msgBus *bus.MessageBus, allowFrom []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		msgBus:    msgBus,
		allowFrom: allowFrom,
	}
}

func (b *BaseChannel) Name() string {
	return b.name
}

// IsAllowed checks the sender allowlist; an empty list allows
// everyone.
func (b *BaseChannel) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, allowed := range b.allowFrom {
		if allowed == senderID {
			return true
		}
	}
	return false
}

func (b *BaseChannel) Publish(msg bus.InboundMessage) {
	b.msgBus.PublishInbound(msg)
}

func (b *BaseChannel) setRunning(running bool) {
	b.running.Store(running)
}

func (b *BaseChannel) IsRunning() bool {
	return b.running.Load()
}
