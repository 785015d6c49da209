package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentavia/case-api/pkg/logger"
	"github.com/dentavia/case-api/pkg/metrics"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository/memory"
)

type fakeBroker struct {
	mu        sync.Mutex
	published []string
	failFirst int
}

func (b *fakeBroker) Publish(_ context.Context, topic string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFirst > 0 {
		b.failFirst--
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, topic)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

func newProcessor(repo *memory.OutboxRepository, broker *fakeBroker) *OutboxProcessor {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Hour,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, log, m)
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	repo := memory.NewOutboxRepository()
	require.NoError(t, repo.Create(context.Background(), &model.OutboxEvent{
		EventType: model.EventCaseCreated,
		Payload:   []byte(`{"ref":"abc"}`),
	}))

	broker := &fakeBroker{}
	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, []string{model.EventCaseCreated}, broker.topics())

	pending, err := repo.GetPendingEventsWithLock(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessEventsRetriesTransientFailure(t *testing.T) {
	repo := memory.NewOutboxRepository()
	require.NoError(t, repo.Create(context.Background(), &model.OutboxEvent{
		EventType: model.EventCaseStatusChanged,
		Payload:   []byte(`{}`),
	}))

	broker := &fakeBroker{failFirst: 1}
	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Len(t, broker.topics(), 1)
}

func TestProcessEventsMarksFailedAfterBudget(t *testing.T) {
	repo := memory.NewOutboxRepository()
	require.NoError(t, repo.Create(context.Background(), &model.OutboxEvent{
		EventType: model.EventContactLogged,
		Payload:   []byte(`{}`),
	}))

	broker := &fakeBroker{failFirst: 10}
	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, broker.topics())

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, string(model.OutboxStatusFailed), events[0].Status)
	require.NotNil(t, events[0].ErrorMessage)
}
