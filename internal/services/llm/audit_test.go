package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gradus/internal/storage/badger"
)

func newTestAuditLogger(t *testing.T, logPrompts bool) *BadgerAuditLogger {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := badger.NewBadgerDB(logger, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerAuditLogger(db, logPrompts, logger)
}

func TestBadgerAuditLogger_RecordsCalls(t *testing.T) {
	audit := newTestAuditLogger(t, true)

	require.NoError(t, audit.LogChat("gemini", true, 120*time.Millisecond, nil, "derive a rubric"))
	require.NoError(t, audit.LogVision("gemini", false, 30*time.Millisecond, errors.New("timeout"), "evaluate image"))

	records, err := audit.GetRecords(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first
	assert.Equal(t, "vision", records[0].Operation)
	assert.False(t, records[0].Success)
	assert.Equal(t, "timeout", records[0].Error)

	assert.Equal(t, "chat", records[1].Operation)
	assert.True(t, records[1].Success)
	assert.Equal(t, "gemini", records[1].Provider)
	assert.Equal(t, "derive a rubric", records[1].PromptText)
}

func TestBadgerAuditLogger_PromptLoggingDisabled(t *testing.T) {
	audit := newTestAuditLogger(t, false)

	require.NoError(t, audit.LogChat("claude", true, time.Millisecond, nil, "secret prompt"))

	records, err := audit.GetRecords(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].PromptText)
}

func TestBadgerAuditLogger_LimitsResults(t *testing.T) {
	audit := newTestAuditLogger(t, false)

	for i := 0; i < 5; i++ {
		require.NoError(t, audit.LogChat("gemini", true, time.Millisecond, nil, ""))
	}

	records, err := audit.GetRecords(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestBadgerAuditLogger_NilIsNoOp(t *testing.T) {
	var audit *BadgerAuditLogger

	assert.NoError(t, audit.LogChat("gemini", true, time.Millisecond, nil, "prompt"))
	assert.NoError(t, audit.LogVision("gemini", true, time.Millisecond, nil, "prompt"))

	records, err := audit.GetRecords(10)
	assert.NoError(t, err)
	assert.Nil(t, records)
	assert.NoError(t, audit.Close())
}
