package notify

import (
	"context"
	"log/slog"
)

// Inbox is a Publisher that hands events to a background Worker through a
// bounded channel, keeping external sink latency out of the request path.
// When the channel is full the event is dropped with a warning rather than
// blocking the operation that emitted it.
type Inbox struct {
	ch     chan Event
	logger *slog.Logger
}

func NewInbox(logger *slog.Logger, capacity int) *Inbox {
	return &Inbox{ch: make(chan Event, capacity), logger: logger}
}

func (i *Inbox) Emit(ctx context.Context, event Event) error {
	select {
	case i.ch <- event:
	default:
		i.logger.WarnContext(ctx, "notification inbox full, dropping event",
			"kind", event.Kind,
			"apartment", event.Apartment,
		)
	}
	return nil
}

// Events exposes the channel for the Worker.
func (i *Inbox) Events() <-chan Event {
	return i.ch
}

// Worker drains an event channel into a publisher. It keeps background
// delivery testable without wiring queue implementations into services.
type Worker struct {
	publisher Publisher
	inbox     <-chan Event
}

func NewWorker(publisher Publisher, inbox <-chan Event) *Worker {
	return &Worker{publisher: publisher, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				return err
			}
		}
	}
}
