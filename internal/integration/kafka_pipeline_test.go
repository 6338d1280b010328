//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/space-weather-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/space-weather-etl/internal/config"
	"github.com/couchcryptid/space-weather-etl/internal/domain"
	"github.com/couchcryptid/space-weather-etl/internal/observability"
	"github.com/couchcryptid/space-weather-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSnapshotTopic = "test-snapshots"

// publishedSnapshot holds one message read back from the snapshot topic.
type publishedSnapshot struct {
	Key     string
	Value   json.RawMessage
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader, n int) []publishedSnapshot {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedSnapshot, 0, n)
	for range n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from snapshot topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		out = append(out, publishedSnapshot{Key: string(msg.Key), Value: msg.Value, Headers: headers})
	}
	return out
}

// staticSource hands back a fixed contribution.
type staticSource struct {
	name string
	c    domain.Contribution
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Default() domain.Contribution { return s.c }

func (s staticSource) Collect(context.Context) (domain.Contribution, error) { return s.c, nil }

// TestPublisher verifies a single snapshot round-trips through Kafka with its
// key and headers intact.
func TestPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testSnapshotTopic}
	publisher := kafka.NewPublisher(cfg, clockwork.NewRealClock(), observability.NewLogger(&config.Config{LogLevel: "error"}))
	defer publisher.Close()

	doc := domain.DstDocument{Current: -55, StormLevel: domain.StormStrong, Updated: "2026-10-14T15:00:00Z"}
	require.NoError(t, publisher.WriteSnapshot(ctx, domain.SnapshotDst, doc))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSnapshotTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer consumer.Close()

	got := readPublished(ctx, t, consumer, 1)[0]
	assert.Equal(t, domain.SnapshotDst, got.Key)
	assert.Equal(t, domain.SnapshotDst, got.Headers["snapshot"])
	assert.NotEmpty(t, got.Headers["published_at"])

	var decoded domain.DstDocument
	require.NoError(t, json.Unmarshal(got.Value, &decoded))
	assert.Equal(t, doc, decoded)
}

// TestPipelineEndToEnd runs the pipeline with the file store and the Kafka
// publisher teed together and checks every document reaches both.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	dir := t.TempDir()
	store, err := snapshot.NewFileStore(dir)
	require.NoError(t, err)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testSnapshotTopic}
	logger := observability.NewLogger(&config.Config{LogLevel: "error"})
	publisher := kafka.NewPublisher(cfg, clockwork.NewRealClock(), logger)
	defer publisher.Close()

	sources := []pipeline.Source{
		staticSource{name: "kp", c: domain.KpContribution{{Timestamp: "2026-10-14T12:00:00Z", KpValue: 6.3, EstimatedKp: 6.3}}},
		staticSource{name: "dst", c: domain.DstContribution{Dst: -55}},
	}
	p := pipeline.New(sources,
		pipeline.NewAssembler(domain.NewMeteorCalendar(1)),
		snapshot.Tee{store, publisher},
		clockwork.NewRealClock(),
		logger,
		observability.NewMetricsForTesting(),
		5*time.Second,
	)

	status, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status.Status)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSnapshotTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	defer consumer.Close()

	published := readPublished(ctx, t, consumer, 7)
	keys := make([]string, 0, len(published))
	for _, m := range published {
		keys = append(keys, m.Key)
		assert.FileExists(t, store.Path(m.Key))
	}
	assert.Equal(t, []string{
		domain.SnapshotNOAA,
		domain.SnapshotAurora,
		domain.SnapshotXray,
		domain.SnapshotDst,
		domain.SnapshotNews,
		domain.SnapshotMeteor,
		domain.SnapshotStatus,
	}, keys)

	var aurora domain.AuroraDocument
	require.NoError(t, json.Unmarshal(published[1].Value, &aurora))
	assert.Equal(t, domain.AuroraHigh, aurora.Level)
}
