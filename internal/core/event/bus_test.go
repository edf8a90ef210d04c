package event

import (
	"testing"
	"time"

	"github.com/farmdemo/server/internal/core/system"
)

func TestPublishIsImmediate(t *testing.T) {
	bus := NewBus()
	var got []bool
	Subscribe(bus, func(e LockChanged) { got = append(got, e.Locked) })
	Subscribe(bus, func(e LockChanged) { got = append(got, !e.Locked) })

	Publish(bus, LockChanged{Locked: true})
	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("handlers saw %v", got)
	}
	if bus.Pending() != 0 {
		t.Errorf("Publish should not buffer, pending = %d", bus.Pending())
	}
}

func TestEmitDeliversNextTick(t *testing.T) {
	bus := NewBus()
	var texts []string
	Subscribe(bus, func(e Printed) { texts = append(texts, e.Text) })

	Emit(bus, Printed{Text: "a"})
	Emit(bus, Printed{Text: "b"})
	bus.DispatchAll()
	if len(texts) != 0 {
		t.Fatalf("delivered before swap: %v", texts)
	}

	runner := system.NewRunner()
	runner.Register(NewDispatchSystem(bus))
	runner.Tick(10 * time.Millisecond)
	if len(texts) != 2 || texts[0] != "a" || texts[1] != "b" {
		t.Errorf("texts = %v", texts)
	}

	runner.Tick(10 * time.Millisecond)
	if len(texts) != 2 {
		t.Errorf("events redelivered: %v", texts)
	}
	if bus.Pending() != 0 {
		t.Errorf("pending = %d", bus.Pending())
	}
}

func TestEmitDuringDispatchWaitsForNextTick(t *testing.T) {
	bus := NewBus()
	var seen int
	Subscribe(bus, func(e Toasted) {
		seen++
		if e.Title == "" {
			Emit(bus, Toasted{Title: "again"})
		}
	})
	dispatch := NewDispatchSystem(bus)

	Emit(bus, Toasted{})
	dispatch.Update(0)
	if seen != 1 {
		t.Fatalf("seen = %d after first tick", seen)
	}
	dispatch.Update(0)
	if seen != 2 {
		t.Errorf("seen = %d after second tick", seen)
	}
}
