package batch

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casetrace/smart-import/internal/classify"
	"github.com/casetrace/smart-import/internal/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const bankCSV = "from_account,to_account,amount,date\n111,222,50000,2025-01-10\n111,333,20000,2025-01-11\n"

func TestManager_AddFile(t *testing.T) {
	t.Run("Parses Maps And Classifies", func(t *testing.T) {
		m := NewManager(testLogger())

		file, err := m.AddFile("transfers.csv", []byte(bankCSV), "digest-1")
		require.NoError(t, err)

		assert.Equal(t, schema.RecordTypeBank, file.RecordType)
		assert.Equal(t, "Bank Transfers", file.TypeLabel)
		assert.Equal(t, StatusMapped, file.Status)
		assert.Equal(t, 2, file.RecordCount)
		assert.Equal(t, "digest-1", file.SHA256)
	})

	t.Run("Parse Failure Keeps File With Error Status", func(t *testing.T) {
		m := NewManager(testLogger())

		file, err := m.AddFile("broken.csv", []byte("   "), "digest-2")
		require.NoError(t, err)

		assert.Equal(t, StatusError, file.Status)
		require.Len(t, file.Warnings, 1)
		assert.Equal(t, classify.SeverityError, file.Warnings[0].Severity)
		assert.Len(t, m.Files(), 1)
	})

	t.Run("Duplicate Name Is Rejected", func(t *testing.T) {
		m := NewManager(testLogger())

		_, err := m.AddFile("transfers.csv", []byte(bankCSV), "digest-1")
		require.NoError(t, err)
		_, err = m.AddFile("transfers.csv", []byte(bankCSV), "digest-1")
		assert.Error(t, err)
	})

	t.Run("Missing Required Field Blocks The File", func(t *testing.T) {
		m := NewManager(testLogger())

		file, err := m.AddFile("partial.csv", []byte("citizen_id\n1101700203451\n"), "d")
		require.NoError(t, err)

		assert.Equal(t, StatusError, file.Status)
	})
}

func TestManager_RemapColumn(t *testing.T) {
	t.Run("Remap Fixes Classification", func(t *testing.T) {
		m := NewManager(testLogger())

		// The obscured column blocks bank classification until remapped.
		file, err := m.AddFile("transfers.csv",
			[]byte("from_account,to_account,val_x9\n111,222,50000\n"), "d")
		require.NoError(t, err)
		assert.Equal(t, schema.RecordTypeUnknown, file.RecordType)

		file, err = m.RemapColumn("transfers.csv", "val_x9", schema.FieldAmount)
		require.NoError(t, err)

		assert.Equal(t, schema.RecordTypeBank, file.RecordType)
		assert.Equal(t, StatusMapped, file.Status)

		records := file.NormalizedRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "50000", records[0][schema.FieldAmount])
	})

	t.Run("Repeating The Same Remap Changes Nothing", func(t *testing.T) {
		m := NewManager(testLogger())

		_, err := m.AddFile("transfers.csv",
			[]byte("from_account,to_account,val_x9\n111,222,50000\n"), "d")
		require.NoError(t, err)

		first, err := m.RemapColumn("transfers.csv", "val_x9", schema.FieldAmount)
		require.NoError(t, err)
		second, err := m.RemapColumn("transfers.csv", "val_x9", schema.FieldAmount)
		require.NoError(t, err)

		assert.Equal(t, first.Mappings, second.Mappings)
		assert.Equal(t, first.Warnings, second.Warnings)
	})

	t.Run("Unknown File Fails", func(t *testing.T) {
		m := NewManager(testLogger())

		_, err := m.RemapColumn("missing.csv", "a", schema.FieldAmount)
		assert.Error(t, err)
	})

	t.Run("Unparsed File Cannot Be Remapped", func(t *testing.T) {
		m := NewManager(testLogger())

		_, err := m.AddFile("broken.csv", []byte(""), "d")
		require.NoError(t, err)

		_, err = m.RemapColumn("broken.csv", "a", schema.FieldAmount)
		assert.Error(t, err)
	})
}

func TestManager_RemoveAndClear(t *testing.T) {
	m := NewManager(testLogger())

	_, err := m.AddFile("a.csv", []byte(bankCSV), "d1")
	require.NoError(t, err)
	_, err = m.AddFile("b.csv", []byte(bankCSV), "d2")
	require.NoError(t, err)

	require.NoError(t, m.Remove("a.csv"))
	assert.Len(t, m.Files(), 1)
	assert.Error(t, m.Remove("a.csv"))

	m.Clear()
	assert.Empty(t, m.Files())
}

func TestManager_CheckAnalyzable(t *testing.T) {
	t.Run("Empty Batch", func(t *testing.T) {
		m := NewManager(testLogger())
		assert.Error(t, m.CheckAnalyzable())
	})

	t.Run("Blocked File", func(t *testing.T) {
		m := NewManager(testLogger())

		_, err := m.AddFile("partial.csv", []byte("citizen_id\n1101700203451\n"), "d")
		require.NoError(t, err)

		assert.Error(t, m.CheckAnalyzable())
	})

	t.Run("Removing The Blocked File Unblocks The Batch", func(t *testing.T) {
		m := NewManager(testLogger())

		_, err := m.AddFile("good.csv", []byte(bankCSV), "d1")
		require.NoError(t, err)
		_, err = m.AddFile("partial.csv", []byte("citizen_id\n1101700203451\n"), "d2")
		require.NoError(t, err)
		require.Error(t, m.CheckAnalyzable())

		require.NoError(t, m.Remove("partial.csv"))
		assert.NoError(t, m.CheckAnalyzable())
	})
}
