// Package broadcast fans freshly ingested telemetry records out to every
// connected dashboard session. One channel per telemetry category, each
// with a fixed subscriber-facing event name. Delivery is best-effort: a
// slow or gone subscriber loses messages, it never blocks ingestion.
// There is no replay; history comes from the query endpoints.
package broadcast

import (
	"errors"
	"sync"

	telemetrydomain "github.com/mmdba/supmmdba/internal/telemetry/domain"
)

const DefaultSubscriberBuffer = 16

// EventNames maps each category to the event identifier its channel
// always emits under.
var EventNames = map[telemetrydomain.Category]string{
	telemetrydomain.CategoryStatus:     "postStatus",
	telemetrydomain.CategoryAlarm:      "postAlarmes",
	telemetrydomain.CategoryWarning:    "postAvisos",
	telemetrydomain.CategoryIO:         "postIOs",
	telemetrydomain.CategorySpeed:      "postVelocidade",
	telemetrydomain.CategoryProduction: "postContagem",
	telemetrydomain.CategoryData:       "postDados",
}

var ErrUnknownChannel = errors.New("unknown broadcast channel")

type Hub struct {
	mu               sync.RWMutex
	channels         map[telemetrydomain.Category]*channel
	subscriberBuffer int
}

type channel struct {
	mu     sync.Mutex
	subs   map[uint64]chan telemetrydomain.Record
	nextID uint64
}

type Subscription struct {
	hub      *Hub
	category telemetrydomain.Category
	id       uint64
	ch       chan telemetrydomain.Record
	once     sync.Once
}

func NewHub() *Hub {
	return &Hub{
		channels:         make(map[telemetrydomain.Category]*channel),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish broadcasts a record to every current subscriber of the
// category's channel. Subscribers whose buffer is full are skipped.
func (h *Hub) Publish(category telemetrydomain.Category, record telemetrydomain.Record) {
	if h == nil {
		return
	}
	h.mu.RLock()
	ch := h.channels[category]
	h.mu.RUnlock()
	if ch == nil {
		return
	}

	ch.mu.Lock()
	subs := make([]chan telemetrydomain.Record, 0, len(ch.subs))
	for _, sub := range ch.subs {
		subs = append(subs, sub)
	}
	ch.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- record:
		default:
		}
	}
}

func (h *Hub) Subscribe(category telemetrydomain.Category) (*Subscription, error) {
	if h == nil {
		return nil, errors.New("hub unavailable")
	}
	if _, ok := EventNames[category]; !ok {
		return nil, ErrUnknownChannel
	}

	ch := h.ensureChannel(category)
	ch.mu.Lock()
	id := ch.nextID
	ch.nextID++
	sub := make(chan telemetrydomain.Record, h.subscriberBuffer)
	ch.subs[id] = sub
	ch.mu.Unlock()

	return &Subscription{
		hub:      h,
		category: category,
		id:       id,
		ch:       sub,
	}, nil
}

func (h *Hub) ensureChannel(category telemetrydomain.Category) *channel {
	h.mu.RLock()
	current := h.channels[category]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.channels[category]
	if current == nil {
		current = &channel{subs: make(map[uint64]chan telemetrydomain.Record)}
		h.channels[category] = current
	}
	return current
}

func (h *Hub) unsubscribe(category telemetrydomain.Category, id uint64) {
	if h == nil {
		return
	}
	h.mu.RLock()
	ch := h.channels[category]
	h.mu.RUnlock()
	if ch == nil {
		return
	}

	ch.mu.Lock()
	delete(ch.subs, id)
	remaining := len(ch.subs)
	ch.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.channels[category]
	if current == ch {
		ch.mu.Lock()
		if len(ch.subs) == 0 {
			delete(h.channels, category)
		}
		ch.mu.Unlock()
	}
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan telemetrydomain.Record {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.category, s.id)
	})
}
