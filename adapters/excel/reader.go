// Package excel reads dataset files into frames and writes analysis reports
// back out as workbooks. Excel and CSV sources share one reader, picked by
// file extension.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gocompare/domain/dataset"
	"gocompare/internal"
	apperrors "gocompare/internal/errors"
)

// DataReader loads a dataset file into an immutable frame.
type DataReader struct {
	filePath string
	sheet    string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader for path. Anything that is not .csv is
// treated as an Excel workbook; sheet names the worksheet to read.
func NewDataReader(path, sheet string, logger *internal.Logger) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: path,
		sheet:    sheet,
		fileType: fileType,
		logger:   logger.WithPrefix("DataReader"),
	}
}

// Read loads the file. Short rows are padded to the header width by the
// frame; empty cells stay empty and count as missing downstream.
func (r *DataReader) Read() (*dataset.Frame, error) {
	r.logger.Info("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.DataFormat(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath), err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, apperrors.DataFormat("dataset needs a header row and at least one data row", nil)
	}

	frame, err := dataset.NewFrame(rows[0], rows[1:])
	if err != nil {
		return nil, apperrors.DataFormat("dataset has an invalid shape", err)
	}

	r.logger.Info("%s file loaded (%d columns, %d rows)",
		strings.ToUpper(r.fileType), frame.ColumnCount(), frame.RowCount())
	return frame, nil
}

func (r *DataReader) readExcel() ([][]string, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.DataFormat("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, apperrors.DataFormat(fmt.Sprintf("failed to read sheet %q", r.sheet), err)
	}
	r.logger.Debug("sheet %q read in %.2fms (%d rows)",
		r.sheet, float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.DataFormat("failed to open CSV file", err)
	}
	defer file.Close()

	start := time.Now()
	reader := csv.NewReader(file)
	// Ragged rows are legal in exported data; the frame pads short ones.
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.DataFormat("failed to read CSV file", err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)",
		float64(time.Since(start).Nanoseconds())/1e6, len(rows))
	return rows, nil
}
