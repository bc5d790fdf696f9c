package utils

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Journal record keys and statuses. Every stage invocation is logged once when
// it starts and once when it finishes; the pair is how a later run knows what
// it may skip.
const (
	JournalMsg = "PIPELINE"

	KeyProgram = "PROGRAM"
	KeySample  = "SAMPLE"
	KeyStatus  = "STATUS"
	KeyCmd     = "CMD"
	KeyRun     = "RUN"

	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
)

type LogEntry struct {
	Timestamp time.Time `json:"time"`
	Level     string    `json:"level"`
	Msg       string    `json:"msg"`
	Program   string    `json:"PROGRAM"`
	Sample    string    `json:"SAMPLE"`
	Status    string    `json:"STATUS"`
	Cmd       string    `json:"CMD"`
	Run       string    `json:"RUN"`
}

// OpenJournal opens (creating if needed) the append-only journal file.
func OpenJournal(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
}

// ParseLogFile returns the journal entries in file order. Lines that are not
// JSON or not stage events are skipped. A missing file yields no entries.
func ParseLogFile(logFilePath string) ([]LogEntry, error) {
	file, err := os.Open(logFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.Msg != JournalMsg || entry.Program == "" || entry.Status == "" {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

// StageHasCompleted reports whether any run recorded program as COMPLETED for
// sample. Outputs are only moved into place on success, so one completion is
// enough even if a later attempt failed.
func StageHasCompleted(entries []LogEntry, program, sample string) bool {
	for _, e := range entries {
		if e.Program == program && e.Sample == sample && e.Status == StatusCompleted {
			return true
		}
	}
	return false
}
