//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"merenda/internal/audit/outbox"
	"merenda/internal/platform/config"
	"merenda/internal/platform/kafka"
	"merenda/pkg/testutil/containers"
)

func TestProducerPublishesKeyedRecords(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rp := containers.GetManager().GetRedpanda(t)
	topic := "workflow.audit." + uuid.NewString()[:8]
	producer, err := kafka.New(ctx, config.Kafka{Brokers: rp.Brokers, ClientID: "merenda-test", AuditTopic: topic})
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1))
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1), "creating an existing topic is not an error")

	entity := uuid.NewString()
	records := []outbox.Record{
		{ID: uuid.New(), AggregateID: entity, EventType: "school.submit", Payload: []byte(`{"n":1}`)},
		{ID: uuid.New(), AggregateID: entity, EventType: "school.district_validates", Payload: []byte(`{"n":2}`)},
	}
	require.NoError(t, producer.Publish(ctx, records))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var got []*kgo.Record
	for len(got) < len(records) {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, fetches.Err())
		got = append(got, fetches.Records()...)
	}
	require.Equal(t, entity, string(got[0].Key))
	require.Equal(t, `{"n":1}`, string(got[0].Value))
	require.Equal(t, `{"n":2}`, string(got[1].Value))
	require.Equal(t, "event_type", got[1].Headers[0].Key)
	require.Equal(t, "school.district_validates", string(got[1].Headers[0].Value))
}
