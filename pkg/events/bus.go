// Package events is the in-memory notification bus between the concept graph
// and its UI collaborators (drawer, info panel).
package events

import (
	"fmt"
	"sync"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"go.uber.org/zap"
)

// Topic names a stream of payloads of type T.
type Topic[T any] struct {
	name string
}

// NewTopic declares a topic.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string { return t.name }

// NodeSelectedTopic carries one notification per click on a node.
var NodeSelectedTopic = NewTopic[model.NodeSelected]("node.selected")

type subscription struct {
	id int
	fn any
}

// Bus manages subscriptions and publishing. Subscribing and publishing are
// safe from any goroutine; handlers run synchronously on the publisher's
// goroutine, in subscription order.
type Bus struct {
	handlers map[string][]subscription
	nextID   int
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewBus creates a bus. A nil logger discards bus logs.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// Subscribe registers fn on topic and returns a function that removes it.
func Subscribe[T any](b *Bus, topic Topic[T], fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic.name] = append(b.handlers[topic.name], subscription{id: id, fn: fn})
	b.logger.Debug("event handler subscribed",
		zap.String("topic", topic.name),
		zap.Int("total_handlers", len(b.handlers[topic.name])))

	var once sync.Once
	return func() {
		once.Do(func() { b.off(topic.name, id) })
	}
}

func (b *Bus) off(name string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[name]
	for i, s := range subs {
		if s.id == id {
			b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every handler of topic and returns how many ran.
// A panicking handler is logged and does not stop the others.
func Publish[T any](b *Bus, topic Topic[T], v T) int {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[topic.name]...)
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		fn, ok := s.fn.(func(T))
		if !ok {
			continue
		}
		if deliver(b, topic.name, fn, v) {
			delivered++
		}
	}
	return delivered
}

func deliver[T any](b *Bus, name string, fn func(T), v T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", name),
				zap.String("panic", fmt.Sprint(r)))
			ok = false
		}
	}()
	fn(v)
	return true
}

// HandlerCount returns the number of handlers for a topic name.
func (b *Bus) HandlerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[name])
}

// Clear removes all registered handlers.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = make(map[string][]subscription)
}

// NotifySelected publishes sel on NodeSelectedTopic.
func (b *Bus) NotifySelected(sel model.NodeSelected) {
	n := Publish(b, NodeSelectedTopic, sel)
	b.logger.Debug("node selected", zap.String("id", sel.ID), zap.Int("handlers", n))
}
