package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kafkaBroker(t *testing.T) string {
	t.Helper()

	broker := os.Getenv("EVENTS_TEST_KAFKA_BROKER")
	if broker == "" {
		t.Skip("EVENTS_TEST_KAFKA_BROKER is required for tests")
	}
	return broker
}

func ensureTopics(t *testing.T, broker string, topics ...string) {
	t.Helper()

	conn, err := kafka.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	admin, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer admin.Close()

	cfgs := make([]kafka.TopicConfig, 0, len(topics))
	for _, tp := range topics {
		cfgs = append(cfgs, kafka.TopicConfig{Topic: tp, NumPartitions: 1, ReplicationFactor: 1})
	}
	require.NoError(t, admin.CreateTopics(cfgs...))
}

func consumeNextEvent(t *testing.T, broker, topic string, produce func()) Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	conn, err := kafka.DialLeader(ctx, "tcp", broker, topic, 0)
	require.NoError(t, err)
	end, err := conn.ReadLastOffset()
	require.NoError(t, err)
	_ = conn.Close()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   time.Second,
	})
	defer r.Close()
	require.NoError(t, r.SetOffset(end))

	produce()

	m, err := r.ReadMessage(ctx)
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(m.Value, &ev))
	return ev
}

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	broker := kafkaBroker(t)
	ensureTopics(t, broker, TopicUser)

	p := NewKafkaPublisher([]string{broker})
	defer p.Close()

	ev := consumeNextEvent(t, broker, TopicUser, func() {
		require.NoError(t, p.Publish(context.Background(), TopicUser, Event{Type: "user_registered", Key: "acc-1"}))
	})
	assert.Equal(t, "user_registered", ev.Type)
	assert.Equal(t, "acc-1", ev.Key)
}
