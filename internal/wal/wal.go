// Package wal is an append-only journal of workflow events. Entries are
// fsynced before the event is published and removed once delivery is
// confirmed, so events survive a broker outage or a crash.
package wal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/freelance-market/pkg/logger"
	"go.uber.org/zap"
)

// Entry is one journaled event
type Entry struct {
	EventID   string          `json:"eventId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type WAL struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func NewWAL(filePath string) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := openAppend(filePath)
	if err != nil {
		return nil, err
	}

	return &WAL{
		filePath: filePath,
		file:     file,
	}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
}

// Write appends an entry and syncs it to disk
func (w *WAL) Write(entry Entry) error {
	start := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if _, err := w.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Journal write failed",
			zap.String("event_id", entry.EventID),
			zap.Error(err),
		)
		return err
	}

	if err := w.file.Sync(); err != nil {
		logger.Log.Error("Journal sync failed",
			zap.String("event_id", entry.EventID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Journal entry written",
		zap.String("event_id", entry.EventID),
		zap.String("type", entry.Type),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// ReadAll returns every pending entry in write order
func (w *WAL) ReadAll() ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.readAllUnsafe()
}

// Cleanup drops the delivered entries by rewriting the journal
func (w *WAL) Cleanup(deliveredIDs []string) error {
	if len(deliveredIDs) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := w.readAllUnsafe()
	if err != nil {
		return err
	}

	delivered := make(map[string]struct{}, len(deliveredIDs))
	for _, id := range deliveredIDs {
		delivered[id] = struct{}{}
	}

	remaining := all[:0]
	for _, entry := range all {
		if _, ok := delivered[entry.EventID]; !ok {
			remaining = append(remaining, entry)
		}
	}

	tempFile := w.filePath + ".tmp"
	if err := writeEntries(tempFile, remaining); err != nil {
		logger.Log.Error("Journal compaction failed",
			zap.String("temp_file", tempFile),
			zap.Error(err),
		)
		return err
	}

	if err := w.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tempFile, w.filePath); err != nil {
		return err
	}

	// The old descriptor points at the replaced inode; writes must go to the new file
	file, err := openAppend(w.filePath)
	if err != nil {
		return err
	}
	w.file = file

	logger.Log.Debug("Journal compacted",
		zap.Int("removed", len(all)-len(remaining)),
		zap.Int("remaining", len(remaining)),
	)
	return nil
}

func writeEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		bw.Write(data)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// readAllUnsafe reads all entries without locking (internal use only).
// Torn or corrupt lines are skipped.
func (w *WAL) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
