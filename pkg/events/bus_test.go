package events

import (
	"testing"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	bus := NewBus(nil)
	var got []string
	bus.NotifySelected(model.NodeSelected{ID: "nobody-listening"})

	Subscribe(bus, NodeSelectedTopic, func(sel model.NodeSelected) { got = append(got, "a:"+sel.ID) })
	Subscribe(bus, NodeSelectedTopic, func(sel model.NodeSelected) { got = append(got, "b:"+sel.ID) })

	if n := Publish(bus, NodeSelectedTopic, model.NodeSelected{ID: "P1"}); n != 2 {
		t.Errorf("expected 2 deliveries, got %d", n)
	}
	if len(got) != 2 || got[0] != "a:P1" || got[1] != "b:P1" {
		t.Errorf("unexpected delivery order: %v", got)
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := NewBus(nil)
	other := NewTopic[string]("other")
	calls := 0
	Subscribe(bus, other, func(string) { calls++ })

	Publish(bus, NodeSelectedTopic, model.NodeSelected{ID: "x"})
	if calls != 0 {
		t.Error("handler on another topic was called")
	}
	Publish(bus, other, "hello")
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	off := Subscribe(bus, NodeSelectedTopic, func(model.NodeSelected) { calls++ })
	Subscribe(bus, NodeSelectedTopic, func(model.NodeSelected) {})
	off()
	off()

	if n := bus.HandlerCount(NodeSelectedTopic.Name()); n != 1 {
		t.Errorf("expected 1 handler left, got %d", n)
	}
	bus.NotifySelected(model.NodeSelected{ID: "P1"})
	if calls != 0 {
		t.Error("unsubscribed handler was called")
	}

	bus.Clear()
	if n := bus.HandlerCount(NodeSelectedTopic.Name()); n != 0 {
		t.Errorf("expected no handlers after Clear, got %d", n)
	}
}

func TestPanickingHandlerIsContained(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewBus(zap.New(core))
	reached := false
	Subscribe(bus, NodeSelectedTopic, func(model.NodeSelected) { panic("boom") })
	Subscribe(bus, NodeSelectedTopic, func(model.NodeSelected) { reached = true })

	if n := Publish(bus, NodeSelectedTopic, model.NodeSelected{ID: "P1"}); n != 1 {
		t.Errorf("expected 1 successful delivery, got %d", n)
	}
	if !reached {
		t.Error("second handler was skipped")
	}
	if logs.FilterMessage("event handler panicked").Len() != 1 {
		t.Error("expected the panic to be logged")
	}
}
