// LingBot - Daily fortune slip bot for group chats
// License: MIT
//
// Copyright (c) 2026 LingBot contributors

package jieqian

import "sync"

// Guard enforces one in-flight interpretation per user. Callers pair
// every successful TryEnter with a deferred Exit.
type Guard struct {
	processing sync.Map
}

func NewGuard() *Guard {
	return &Guard{}
}

// TryEnter claims the user's slot; false means a request is already
// running.
func (g *Guard) TryEnter(userID string) bool {
	_, loaded := g.processing.LoadOrStore(userID, struct{}{})
	return !loaded
}

func (g *Guard) Exit(userID string) {
	g.processing.Delete(userID)
}

// Busy reports whether the user's slot is currently held.
func (g *Guard) Busy(userID string) bool {
	_, ok := g.processing.Load(userID)
	return ok
}
