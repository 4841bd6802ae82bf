// Package recorder writes a JSONL flight recording of tool calls, one file
// per agent session, keeping only the newest few files.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	MaxRotatedFiles = 3
	DefaultDir      = "data/traces"
)

// Record is one line of a trace file.
type Record struct {
	Timestamp time.Time   `json:"ts"`
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data"`
}

// Recorder appends records to the current trace file. Log is a no-op until
// Start has been called.
type Recorder struct {
	mu      sync.Mutex
	dir     string
	file    *os.File
	encoder *json.Encoder
	logger  *zap.Logger
	now     func() time.Time
}

// New creates dir if needed.
func New(dir string, logger *zap.Logger) (*Recorder, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	return &Recorder{dir: dir, logger: logger, now: time.Now}, nil
}

// Start closes any open trace, prunes old ones and opens a new file for sessionID.
func (r *Recorder) Start(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file, r.encoder = nil, nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	name := fmt.Sprintf("trace_%s_%d.jsonl", sessionID, r.now().UnixMilli())
	f, err := os.Create(filepath.Join(r.dir, name))
	if err != nil {
		return err
	}
	r.file = f
	r.encoder = json.NewEncoder(f)
	r.logger.Info("trace started", zap.String("file", f.Name()))
	return nil
}

// Log appends one record. Encoding failures are logged and otherwise ignored
// so tracing never fails a tool call.
func (r *Recorder) Log(recordType, sessionID string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}
	rec := Record{
		Timestamp: r.now().UTC(),
		Type:      recordType,
		SessionID: sessionID,
		Data:      data,
	}
	if err := r.encoder.Encode(rec); err != nil {
		r.logger.Warn("trace write failed", zap.String("type", recordType), zap.Error(err))
	}
}

// Path returns the open trace file, or "" when none is open.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return ""
	}
	return r.file.Name()
}

// rotate deletes the oldest traces so that, with the file about to be
// created, at most MaxRotatedFiles remain.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}

	type trace struct {
		name    string
		modTime time.Time
	}
	var traces []trace
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, trace{e.Name(), info.ModTime()})
	}

	// Newest first; names carry a millisecond stamp and break ties.
	sort.Slice(traces, func(i, j int) bool {
		if !traces[i].modTime.Equal(traces[j].modTime) {
			return traces[i].modTime.After(traces[j].modTime)
		}
		return traces[i].name > traces[j].name
	})

	for i := MaxRotatedFiles - 1; i < len(traces); i++ {
		if err := os.Remove(filepath.Join(r.dir, traces[i].name)); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("trace prune failed", zap.String("file", traces[i].name), zap.Error(err))
		}
	}
	return nil
}

// Close finishes the current trace.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file, r.encoder = nil, nil
	return err
}
