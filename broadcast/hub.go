package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// Subscription receives every envelope published on its topics until
// Unsubscribe. The channel is buffered; a subscriber that cannot keep up
// has envelopes dropped rather than blocking the publisher (at-most-once).
type Subscription struct {
	C      chan Envelope
	topics []string
	hub    *Hub
}

func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)
}

// Hub is the in-process Broadcaster. Delivery order matches publish order
// per process; no total order is promised across replicas.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]bool
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]bool),
		logger: logger,
	}
}

// Subscribe registers a subscriber for every listed topic.
func (h *Hub) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		C:      make(chan Envelope, subscriberBuffer),
		topics: topics,
		hub:    h,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*Subscription]bool)
		}
		h.topics[topic][sub] = true
	}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range sub.topics {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
}

func (h *Hub) Publish(topic, event string, payload interface{}) {
	env := Envelope{Topic: topic, Event: event, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[topic] {
		select {
		case sub.C <- env:
		default:
			h.logger.Warnf("Dropping %s event for slow subscriber on topic %s", event, topic)
		}
	}
}

func (h *Hub) PublishToUser(userID, queue, event string, payload interface{}) {
	h.Publish(UserQueue(userID, queue), event, payload)
}

// SubscriberCount reports the live subscriber count for a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
