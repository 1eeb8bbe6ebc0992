package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(10)
	want := Event{Kind: "borrow", SID: "STU1001", At: time.Now().UTC()}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	events, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	select {
	case got := <-events:
		if got.Kind != want.Kind || got.SID != want.SID {
			t.Errorf("got %+v, want kind=%s sid=%s", got, want.Kind, want.SID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered within 1s")
	}
}

func TestInMemoryOrdering(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(10)
	for _, sid := range []string{"STU1001", "STU1002", "STU1003"} {
		if err := q.Publish(ctx, Event{Kind: "lab", SID: sid}); err != nil {
			t.Fatalf("Publish %s: %v", sid, err)
		}
	}

	events, _ := q.Consume(ctx)
	for _, want := range []string{"STU1001", "STU1002", "STU1003"} {
		select {
		case got := <-events:
			if got.SID != want {
				t.Errorf("got %s, want %s", got.SID, want)
			}
		case <-time.After(time.Second):
			t.Fatal("queue stalled")
		}
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	t.Parallel()

	q := NewInMemory(0) // unbuffered, nobody consuming
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(ctx, Event{Kind: "hostel", SID: "STU1001"}); err == nil {
		t.Error("Publish on cancelled context succeeded, want error")
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	events, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	cancel()
	select {
	case _, open := <-events:
		if open {
			t.Error("got event after cancel, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
