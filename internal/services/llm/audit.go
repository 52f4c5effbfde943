package llm

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/gradus/internal/storage/badger"
)

// maxAuditPromptLen caps the prompt text stored per audit record.
const maxAuditPromptLen = 2000

// AuditRecord is one logged model call
type AuditRecord struct {
	ID         string    `badgerhold:"key" json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Provider   string    `json:"provider"`
	Operation  string    `json:"operation"` // "chat" or "vision"
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	PromptText string    `json:"prompt_text,omitempty"`
}

// AuditLogger defines the interface for model-call audit logging. A nil
// *BadgerAuditLogger is a valid no-op logger, so auditing stays optional.
type AuditLogger interface {
	LogChat(provider string, success bool, duration time.Duration, err error, promptText string) error
	LogVision(provider string, success bool, duration time.Duration, err error, promptText string) error
	GetRecords(limit int) ([]AuditRecord, error)
	Close() error
}

// BadgerAuditLogger implements AuditLogger using a Badger store
type BadgerAuditLogger struct {
	db         *badger.BadgerDB
	logPrompts bool
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ AuditLogger = (*BadgerAuditLogger)(nil)

// NewBadgerAuditLogger creates a new Badger-backed audit logger
func NewBadgerAuditLogger(db *badger.BadgerDB, logPrompts bool, logger arbor.ILogger) *BadgerAuditLogger {
	return &BadgerAuditLogger{
		db:         db,
		logPrompts: logPrompts,
		logger:     logger,
	}
}

// LogChat records a chat completion call
func (l *BadgerAuditLogger) LogChat(provider string, success bool, duration time.Duration, err error, promptText string) error {
	return l.logOperation("chat", provider, success, duration, err, promptText)
}

// LogVision records a vision completion call
func (l *BadgerAuditLogger) LogVision(provider string, success bool, duration time.Duration, err error, promptText string) error {
	return l.logOperation("vision", provider, success, duration, err, promptText)
}

func (l *BadgerAuditLogger) logOperation(operation, provider string, success bool, duration time.Duration, opErr error, promptText string) error {
	if l == nil {
		return nil
	}

	var errorMsg string
	if opErr != nil {
		errorMsg = opErr.Error()
	}

	var prompt string
	if l.logPrompts {
		prompt = promptText
		if len(prompt) > maxAuditPromptLen {
			prompt = prompt[:maxAuditPromptLen]
		}
	}

	record := AuditRecord{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Provider:   provider,
		Operation:  operation,
		Success:    success,
		Error:      errorMsg,
		DurationMs: duration.Milliseconds(),
		PromptText: prompt,
	}

	l.logger.Debug().
		Str("operation", operation).
		Str("provider", provider).
		Str("success", fmt.Sprintf("%v", success)).
		Int64("duration_ms", record.DurationMs).
		Msg("Logging model call")

	if err := l.db.Store().Insert(record.ID, &record); err != nil {
		l.logger.Error().
			Err(err).
			Str("operation", operation).
			Str("provider", provider).
			Msg("Failed to insert audit record")
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// GetRecords returns the most recent audit records, newest first
func (l *BadgerAuditLogger) GetRecords(limit int) ([]AuditRecord, error) {
	if l == nil {
		return nil, nil
	}

	var records []AuditRecord
	if err := l.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// Close closes the underlying store
func (l *BadgerAuditLogger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}
