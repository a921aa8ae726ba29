// Package events fans game events out to any number of subscribers.
package events

import (
	"slices"
	"strconv"
	"sync"

	"imitgame/internal/game"
)

type Handler func(game.Event)

type subscription struct {
	id      string
	kinds   []game.EventKind
	handler Handler
}

// Bus is a game.Sink. Handlers run synchronously, in subscription order, on the
// goroutine that emits.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for the given kinds, or for every kind when none
// are given. It returns an id for Unsubscribe.
func (b *Bus) Subscribe(handler Handler, kinds ...game.EventKind) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := "sub_" + strconv.Itoa(b.nextID)
	b.subs = append(b.subs, subscription{id: id, kinds: slices.Clone(kinds), handler: handler})
	return id
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
}

func (b *Bus) Emit(e game.Event) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if len(s.kinds) == 0 || slices.Contains(s.kinds, e.Kind) {
			s.handler(e)
		}
	}
}
