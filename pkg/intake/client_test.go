package intake

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentavia/case-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Output: io.Discard})
}

func retries(n int) *int {
	return &n
}

func newStore(t *testing.T) *FallbackStore {
	t.Helper()
	return NewFallbackStore(filepath.Join(t.TempDir(), "intake.jsonl"))
}

func TestSubmitSuccessTagsRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"case_id":"id-1","case_ref":"ref-1","portal_token":"tok-1"}`))
	}))
	defer srv.Close()

	store := newStore(t)
	client := NewClient(Config{Endpoint: srv.URL}, store, testLogger())

	result := client.Submit(context.Background(), &Payload{Name: "Jane", Source: "intake"})
	require.True(t, result.Success)
	assert.Equal(t, "ref-1", result.CaseRef)
	assert.Equal(t, "tok-1", result.PortalToken)

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, SavedToRemote, records[0].Meta.SavedTo)
	assert.Equal(t, "ref-1", records[0].Meta.CaseRef)
}

func TestSubmitRetriesServerErrorOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true,"case_ref":"ref-2"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Retries: retries(1)}, nil, testLogger())

	result := client.Submit(context.Background(), &Payload{Name: "Jane"})
	require.True(t, result.Success)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSubmitGivesUpAfterBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newStore(t)
	client := NewClient(Config{Endpoint: srv.URL, Retries: retries(1)}, store, testLogger())

	result := client.Submit(context.Background(), &Payload{Name: "Jane"})
	assert.False(t, result.Success)
	assert.False(t, result.TimedOut)
	assert.Equal(t, msgFailed, result.Message)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// The local record from before the attempts is still there.
	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, SavedToLocal, records[0].Meta.SavedTo)
}

func TestSubmitZeroRetriesMeansSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Retries: retries(0)}, nil, testLogger())

	result := client.Submit(context.Background(), &Payload{Name: "Jane"})
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubmitTimeoutGetsDistinctMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond}, nil, testLogger())

	result := client.Submit(context.Background(), &Payload{Name: "Jane"})
	assert.False(t, result.Success)
	assert.True(t, result.TimedOut)
	assert.Equal(t, msgTimedOut, result.Message)
}

func TestSubmitGuardRejectionIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"reason":"rate_limit","message":"slow down"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Retries: retries(3)}, nil, testLogger())

	result := client.Submit(context.Background(), &Payload{Name: "Jane"})
	assert.False(t, result.Success)
	assert.Equal(t, "slow down", result.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFallbackLatestTagWins(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Append(Record{SubmissionID: "s1", Meta: Meta{SavedTo: SavedToLocal}}))
	require.NoError(t, store.Append(Record{SubmissionID: "s2", Meta: Meta{SavedTo: SavedToLocal}}))
	require.NoError(t, store.Append(Record{SubmissionID: "s1", Meta: Meta{SavedTo: SavedToRemote, CaseRef: "ref-1"}}))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, SavedToRemote, records[0].Meta.SavedTo)
	assert.Equal(t, SavedToLocal, records[1].Meta.SavedTo)
}
