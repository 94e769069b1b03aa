package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gocompare/internal"
	apperrors "gocompare/internal/errors"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

// writeWorkbook builds a single-sheet .xlsx fixture. Nil entries leave their
// cell unset, which is how spreadsheets represent missing data.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDataReader_ReadsWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"participant_id", "condition", "score"},
		{"p1", "tactile", 12.5},
		{"p2", "gesture", 9},
		{"p3", "tactile", nil},
	})

	frame, err := NewDataReader(path, "Sheet1", testLogger()).Read()
	require.NoError(t, err)

	assert.Equal(t, 3, frame.ColumnCount())
	assert.Equal(t, 3, frame.RowCount())
	assert.True(t, frame.HasColumn("score"))

	sample, err := frame.NumericSample("condition", "tactile", "score")
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5}, sample, "the unset cell should read as missing, not zero")
}

func TestDataReader_ReadsCSV(t *testing.T) {
	content := "participant_id,condition,score\np1,tactile,4\np2,gesture,7\n"
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	frame, err := NewDataReader(path, "", testLogger()).Read()
	require.NoError(t, err)

	assert.Equal(t, 2, frame.RowCount())
	sample, err := frame.NumericSample("condition", "gesture", "score")
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, sample)
}

func TestDataReader_PadsRaggedCSVRows(t *testing.T) {
	content := "participant_id,condition,score\np1,tactile,4\np2,gesture\n"
	path := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	frame, err := NewDataReader(path, "", testLogger()).Read()
	require.NoError(t, err)

	assert.Equal(t, 2, frame.RowCount())
	sample, err := frame.NumericSample("condition", "gesture", "score")
	require.NoError(t, err)
	assert.Empty(t, sample, "the padded cell should count as missing")
}

func TestDataReader_DetectsFileType(t *testing.T) {
	assert.Equal(t, "csv", NewDataReader("data.CSV", "", testLogger()).fileType)
	assert.Equal(t, "xlsx", NewDataReader("data.xlsx", "Sheet1", testLogger()).fileType)
	assert.Equal(t, "xlsx", NewDataReader("data", "Sheet1", testLogger()).fileType)
}

func TestDataReader_MissingFile(t *testing.T) {
	reader := NewDataReader(filepath.Join(t.TempDir(), "absent.xlsx"), "Sheet1", testLogger())

	_, err := reader.Read()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDataFormat, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestDataReader_HeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n"), 0o644))

	_, err := NewDataReader(path, "", testLogger()).Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row")
}

func TestDataReader_UnknownSheet(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"condition", "score"},
		{"tactile", 1},
	})

	_, err := NewDataReader(path, "Results", testLogger()).Read()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDataFormat, apperrors.GetCode(err))
}

func TestDataReader_DuplicateHeaders(t *testing.T) {
	content := "score,score\n1,2\n"
	path := filepath.Join(t.TempDir(), "dup.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewDataReader(path, "", testLogger()).Read()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDataFormat, apperrors.GetCode(err))
}
