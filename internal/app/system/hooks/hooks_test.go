package hooks_test

import (
	"context"
	"testing"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/hooks"
)

func TestPublish_PriorityOrder(t *testing.T) {
	bus := hooks.New()
	var order []string

	bus.Subscribe("t", "late", 20, func(ctx context.Context, _ any) {
		order = append(order, "late")
	})
	bus.Subscribe("t", "early", 5, func(ctx context.Context, _ any) {
		order = append(order, "early")
	})
	bus.Subscribe("t", "mid", 10, func(ctx context.Context, _ any) {
		order = append(order, "mid")
	})

	bus.Publish(context.Background(), "t", nil)

	want := []string{"early", "mid", "late"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, order[i], want[i])
		}
	}
}

func TestPublish_EqualPriorityKeepsSubscriptionOrder(t *testing.T) {
	bus := hooks.New()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		n := name
		bus.Subscribe("t", n, 10, func(ctx context.Context, _ any) {
			order = append(order, n)
		})
	}

	bus.Publish(context.Background(), "t", nil)

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("expected subscription order preserved, got %v", order)
	}
}

func TestPublish_MutablePayload(t *testing.T) {
	bus := hooks.New()
	type payload struct{ N int }

	bus.Subscribe("t", "bump", 10, func(ctx context.Context, p any) {
		p.(*payload).N++
	})

	p := &payload{N: 1}
	bus.Publish(context.Background(), "t", p)

	if p.N != 2 {
		t.Errorf("expected handler mutation visible to publisher, got N=%d", p.N)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := hooks.New()
	fired := 0
	bus.Subscribe("t", "h", 10, func(ctx context.Context, _ any) { fired++ })

	bus.Unsubscribe("t", "h")
	bus.Publish(context.Background(), "t", nil)

	if fired != 0 {
		t.Errorf("expected no fires after unsubscribe, got %d", fired)
	}

	// Unsubscribing again must not panic.
	bus.Unsubscribe("t", "h")
}

func TestSuspend_DetachesForExactlyOneScope(t *testing.T) {
	bus := hooks.New()
	fired := 0
	bus.Subscribe("t", "h", 10, func(ctx context.Context, _ any) { fired++ })

	resume := bus.Suspend("t", "h")
	bus.Publish(context.Background(), "t", nil)
	if fired != 0 {
		t.Fatalf("handler fired while suspended")
	}

	resume()
	bus.Publish(context.Background(), "t", nil)
	if fired != 1 {
		t.Errorf("expected handler reattached after resume, fired=%d", fired)
	}
}

func TestSuspend_ResumeRestoresPriority(t *testing.T) {
	bus := hooks.New()
	var order []string
	bus.Subscribe("t", "first", 1, func(ctx context.Context, _ any) {
		order = append(order, "first")
	})
	bus.Subscribe("t", "second", 2, func(ctx context.Context, _ any) {
		order = append(order, "second")
	})

	resume := bus.Suspend("t", "first")
	resume()

	bus.Publish(context.Background(), "t", nil)
	if len(order) != 2 || order[0] != "first" {
		t.Errorf("expected resumed handler to keep its priority slot, got %v", order)
	}
}

func TestSuspend_ResumeOnPanicPath(t *testing.T) {
	bus := hooks.New()
	fired := 0
	bus.Subscribe("t", "h", 10, func(ctx context.Context, _ any) { fired++ })

	func() {
		defer func() { recover() }()
		defer bus.Suspend("t", "h")()
		panic("mutation failed")
	}()

	bus.Publish(context.Background(), "t", nil)
	if fired != 1 {
		t.Errorf("expected handler reattached after panic, fired=%d", fired)
	}
}

func TestSuspend_UnknownHandlerIsNoop(t *testing.T) {
	bus := hooks.New()
	resume := bus.Suspend("t", "missing")
	resume()
	resume() // double resume must also be safe
}

func TestSuspend_IsPerHandler(t *testing.T) {
	bus := hooks.New()
	var fired []string
	bus.Subscribe("t", "groups", 10, func(ctx context.Context, _ any) {
		fired = append(fired, "groups")
	})
	bus.Subscribe("t", "members", 10, func(ctx context.Context, _ any) {
		fired = append(fired, "members")
	})

	defer bus.Suspend("t", "groups")()
	bus.Publish(context.Background(), "t", nil)

	if len(fired) != 1 || fired[0] != "members" {
		t.Errorf("expected only the unsuspended handler to fire, got %v", fired)
	}
}

func TestSubscribe_ReplacesExistingName(t *testing.T) {
	bus := hooks.New()
	fired := ""
	bus.Subscribe("t", "h", 10, func(ctx context.Context, _ any) { fired = "old" })
	bus.Subscribe("t", "h", 10, func(ctx context.Context, _ any) { fired = "new" })

	bus.Publish(context.Background(), "t", nil)

	if fired != "new" {
		t.Errorf("expected replacement handler to run, got %q", fired)
	}
	if n := len(bus.Handlers("t")); n != 1 {
		t.Errorf("expected a single handler after replacement, got %d", n)
	}
}
