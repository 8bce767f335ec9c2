// Package events delivers engine state-transition events to in-process
// subscribers. Delivery is at-most-once: a subscriber whose buffer is full
// loses the event rather than blocking the emitting operation.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/capsched/pkg/model"
)

// DefaultSubscriberBuffer is the per-subscriber channel depth.
const DefaultSubscriberBuffer = 64

// Bus fans out events to subscribers.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	agentID string // "" receives events for all agents
	ch      chan model.Event
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger.With("component", "events"),
		subs:   make(map[int]*subscriber),
	}
}

// Subscribe registers a subscription. agentID "" receives all events;
// otherwise only events for that agent are delivered. buffer values <= 0
// use DefaultSubscriberBuffer. The returned cancel function closes the
// channel and must be called exactly once.
func (b *Bus) Subscribe(agentID string, buffer int) (<-chan model.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	sub := &subscriber{agentID: agentID, ch: make(chan model.Event, buffer)}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		// Closing under the write lock keeps Publish (which sends under the
		// read lock) from racing a send against the close.
		b.mu.Lock()
		delete(b.subs, id)
		close(sub.ch)
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish emits an event carrying the full post-mutation entity. Never
// blocks; slow subscribers drop.
func (b *Bus) Publish(evtType model.EventType, agentID string, payload any) {
	evt := model.Event{
		ID:        "evt_" + uuid.New().String()[:8],
		Type:      evtType,
		AgentID:   agentID,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.agentID != "" && sub.agentID != agentID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.logger.Debug("event dropped (subscriber buffer full)", "type", evtType, "agent_id", agentID)
		}
	}
}
