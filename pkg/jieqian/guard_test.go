package jieqian

import (
	"sync"
	"testing"
)

func TestGuard_SingleFlight(t *testing.T) {
	g := NewGuard()

	if !g.TryEnter("u1") {
		t.Fatal("first enter should succeed")
	}
	if g.TryEnter("u1") {
		t.Fatal("second enter for same user should fail")
	}
	if !g.Busy("u1") {
		t.Fatal("user should be busy while entered")
	}
	if !g.TryEnter("u2") {
		t.Fatal("other users are independent")
	}

	g.Exit("u1")
	if g.Busy("u1") {
		t.Fatal("user should be free after exit")
	}
	if !g.TryEnter("u1") {
		t.Fatal("re-enter after exit should succeed")
	}
}

func TestGuard_ConcurrentEnter(t *testing.T) {
	g := NewGuard()

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryEnter("u1") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("winners = %d, want exactly 1", count)
	}
}
