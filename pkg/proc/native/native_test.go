package native

import (
	"testing"
)

func TestPendingEventSetReset(t *testing.T) {
	var pe pendingEvent
	pe.set(42)
	if !pe.valid || pe.tid != 42 {
		t.Errorf("unexpected pending event state: %+v", pe)
	}
	pe.reset()
	if pe.valid || pe.tid != 0 {
		t.Errorf("unexpected pending event state after reset: %+v", pe)
	}
}

func TestPendingEventDoubleSetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("second set did not panic")
		}
	}()
	var pe pendingEvent
	pe.set(1)
	pe.set(2)
}

func TestPendingEventResetWithoutSetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("reset without set did not panic")
		}
	}()
	var pe pendingEvent
	pe.reset()
}
