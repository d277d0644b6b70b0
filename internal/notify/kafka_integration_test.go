//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"domus/internal/notify"
	"domus/pkg/testutil/containers"
)

func TestKafkaEmit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.DiscardHandler)

	const topic = "domus.apartment-events.test"
	kafka, err := notify.NewKafka(context.Background(), logger, rc.Brokers, topic)
	require.NoError(t, err)

	events := []notify.Event{
		{ID: "evt-1", Kind: notify.KindApartmentRegistered, Apartment: 7, Actor: "acct-owner"},
		{ID: "evt-2", Kind: notify.KindApartmentListedForRent, Apartment: 7, Actor: "acct-owner", Amount: 100},
		{ID: "evt-3", Kind: notify.KindApartmentRented, Apartment: 7, Actor: "acct-tenant", Amount: 150},
	}
	for _, event := range events {
		require.NoError(t, kafka.Emit(context.Background(), event))
	}
	kafka.Close()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rc.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var consumed []notify.Event
	for len(consumed) < len(events) {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		fetches.EachRecord(func(record *kgo.Record) {
			// Records are keyed by apartment number for partition ordering.
			require.Equal(t, "7", string(record.Key))

			var event notify.Event
			require.NoError(t, json.Unmarshal(record.Value, &event))
			consumed = append(consumed, event)
		})
	}

	require.Len(t, consumed, 3)
	require.Equal(t, notify.KindApartmentRegistered, consumed[0].Kind)
	require.Equal(t, notify.KindApartmentListedForRent, consumed[1].Kind)
	require.Equal(t, notify.KindApartmentRented, consumed[2].Kind)
}
