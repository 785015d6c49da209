package intake

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SavedTo marks which store holds the authoritative copy of a record.
const (
	SavedToLocal  = "local"
	SavedToRemote = "remote"
)

// Record is one fallback entry. The file is append-only: a successful remote
// write appends a second record tagged remote rather than editing the first,
// and the latest tag per submission wins on read.
type Record struct {
	SubmissionID string   `json:"submission_id"`
	Payload      *Payload `json:"payload"`
	Meta         Meta     `json:"meta"`
}

type Meta struct {
	SavedTo string    `json:"savedTo"`
	CaseRef string    `json:"case_ref,omitempty"`
	At      time.Time `json:"at"`
}

// FallbackStore is the local durable layer behind the transport: leads are
// captured here before the network is ever touched, so a dead intake endpoint
// still cannot lose a submission.
type FallbackStore struct {
	path string
	mu   sync.Mutex
}

func NewFallbackStore(path string) *FallbackStore {
	return &FallbackStore{path: path}
}

func (s *FallbackStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open fallback store: %w", err)
	}
	defer f.Close()

	rec.Meta.At = time.Now()
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal fallback record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append fallback record: %w", err)
	}
	return nil
}

// Load replays the file and returns the latest record per submission id.
func (s *FallbackStore) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open fallback store: %w", err)
	}
	defer f.Close()

	latest := make(map[string]Record)
	var order []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Skip torn writes; the rest of the file is still good.
			continue
		}
		if _, seen := latest[rec.SubmissionID]; !seen {
			order = append(order, rec.SubmissionID)
		}
		latest[rec.SubmissionID] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fallback store: %w", err)
	}

	records := make([]Record, 0, len(order))
	for _, id := range order {
		records = append(records, latest[id])
	}
	return records, nil
}
