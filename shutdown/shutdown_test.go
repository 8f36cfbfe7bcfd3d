package shutdown

import "testing"

func TestShutdownPriority(t *testing.T) {
	var lastClosed int
	var calls int

	add := func(label string, priority int) {
		AddHookWithPriority(label, priority, func() {
			calls++
			if lastClosed > priority {
				t.Fatalf("something higher priority (%d) was closed earlier than (%d)", lastClosed, priority)
			} else {
				lastClosed = priority
			}
		})
	}

	add("database", PriorityCritical)
	add("echo", PriorityIngress)
	add("sessions", PrioritySessions)
	add("catalog", PriorityCritical)

	Shutdown()
	Shutdown()

	if calls != 4 {
		t.Fatalf("expected 4 hooks to run once, got %d", calls)
	}
}
