// Package relay provides in-memory fan-out of presence and edit events,
// one topic per document. Delivery is best effort: nothing is persisted,
// and a subscriber that falls behind loses messages rather than slowing
// the rest of the topic down.
package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scribehub/scribe-server/internal/models"
)

// DefaultSubscriberBuffer is the per-subscriber channel depth used when
// the broker is configured with a non-positive buffer.
const DefaultSubscriberBuffer = 64

// Subscription is a live attachment to a document's topic. Ch delivers
// every message published to the topic, the subscriber's own included.
type Subscription struct {
	ID         string
	DocumentID string
	Ch         chan models.Message
	CreatedAt  time.Time
}

// Broker routes messages between subscribers of the same document.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscription // document ID -> subscriber ID -> subscription
	buffer int
	logger *slog.Logger
}

// NewBroker creates a broker with the given per-subscriber buffer depth.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		topics: make(map[string]map[string]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe attaches to a document's topic, creating the topic on first
// use. The returned subscription is the handle for Unsubscribe.
func (b *Broker) Subscribe(documentID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Ch:         make(chan models.Message, b.buffer),
		CreatedAt:  time.Now(),
	}

	topic, ok := b.topics[documentID]
	if !ok {
		topic = make(map[string]*Subscription)
		b.topics[documentID] = topic
	}
	topic[sub.ID] = sub

	b.logger.Debug("subscriber added",
		"subscriber_id", sub.ID,
		"document_id", documentID,
	)
	return sub
}

// Unsubscribe detaches a subscription and closes its channel. The topic
// disappears with its last subscriber. Safe to call more than once.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	topic, ok := b.topics[sub.DocumentID]
	if !ok {
		return
	}
	if _, exists := topic[sub.ID]; !exists {
		return
	}

	close(sub.Ch)
	delete(topic, sub.ID)
	if len(topic) == 0 {
		delete(b.topics, sub.DocumentID)
	}

	b.logger.Debug("subscriber removed",
		"subscriber_id", sub.ID,
		"document_id", sub.DocumentID,
	)
}

// Publish fans a message out to every subscriber of the document's
// topic, the sender included. Subscribers with full buffers miss this
// message; publishing to a document with no subscribers is a no-op.
func (b *Broker) Publish(documentID string, msg models.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.topics[documentID] {
		select {
		case sub.Ch <- msg:
		default:
			b.logger.Warn("subscriber buffer full, dropping message",
				"subscriber_id", sub.ID,
				"document_id", documentID,
				"type", msg.Type,
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers for a document.
func (b *Broker) SubscriberCount(documentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[documentID])
}

// TopicCount returns the number of documents with live subscribers.
func (b *Broker) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}
