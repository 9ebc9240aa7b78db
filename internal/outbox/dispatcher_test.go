package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/wellness/internal/events"
)

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []string
}

func (s *stubRegistry) EnsureSchema(_ context.Context, subject string, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, subject)
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}

func outboxMessage(id int64, eventType string) Message {
	meta, _ := events.Lookup(eventType)
	return Message{
		EventID:       id,
		AggregateType: "activity",
		AggregateID:   "42",
		EventType:     eventType,
		Topic:         meta.Topic,
		SchemaSubject: meta.SchemaSubject,
		PartitionKey:  "42",
		Payload:       json.RawMessage(`{"activity_id":42}`),
	}
}

func TestDeliverGroupsByTopicAndFramesPayload(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 21}
	d := NewDispatcher(nil, producer, registry, time.Second, 10)

	err := d.deliver(context.Background(), []Message{
		outboxMessage(1, events.TypeActivityUpserted),
		outboxMessage(2, events.TypeActivityUpserted),
		outboxMessage(3, events.TypeDailyStatUpserted),
	})
	require.NoError(t, err)

	require.Len(t, producer.writes, 2)
	require.Equal(t, "wellness_activities", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Equal(t, "wellness_daily_stats", producer.writes[1].topic)

	value := producer.writes[0].messages[0].Value
	require.Equal(t, byte(0), value[0])
	require.EqualValues(t, 21, binary.BigEndian.Uint32(value[1:5]))
	require.JSONEq(t, `{"activity_id":42}`, string(value[5:]))
	require.Equal(t, []byte("42"), producer.writes[0].messages[0].Key)
	require.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte(events.TypeActivityUpserted)},
		{Key: "aggregate_type", Value: []byte("activity")},
	}, producer.writes[0].messages[0].Headers)

	// One registry call per subject thanks to the cache.
	require.Equal(t, []string{"wellness_activities-value", "wellness_daily_stats-value"}, registry.calls)
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 1}
	d := NewDispatcher(nil, producer, registry, time.Second, 10)

	err := d.deliver(context.Background(), []Message{outboxMessage(1, "activity.deleted")})
	require.ErrorContains(t, err, "no schema metadata for event_type=activity.deleted")
	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
}

func TestDeliverSurfacesRegistryErrors(t *testing.T) {
	registry := &stubRegistry{err: errors.New("registry down")}
	d := NewDispatcher(nil, &stubProducer{}, registry, time.Second, 10)

	err := d.deliver(context.Background(), []Message{outboxMessage(1, events.TypeWeighInUpserted)})
	require.ErrorContains(t, err, "registry down")
}

func TestSchemaRegistryRegistersMissingSubject(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"schemaType":"JSON"`)
		switch r.URL.Path {
		case "/subjects/wellness_activities-value":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":40401,"message":"Subject not found"}`))
		case "/subjects/wellness_activities-value/versions":
			_, _ = w.Write([]byte(`{"id":17}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewSchemaRegistryClient(srv.URL + "/")
	id, err := client.EnsureSchema(context.Background(), "wellness_activities-value", `{"type":"object"}`)
	require.NoError(t, err)
	require.Equal(t, 17, id)
	require.Equal(t, []string{
		"POST /subjects/wellness_activities-value",
		"POST /subjects/wellness_activities-value/versions",
	}, paths)
}

func TestSchemaRegistryReturnsExistingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"subject":"s","version":3,"id":5}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "s", `{}`)
	require.NoError(t, err)
	require.Equal(t, 5, id)
}
