package ports

import "gocompare/domain/dataset"

// DatasetReader loads the observation table for an analysis run.
// Implementations read one source (an .xlsx sheet, a .csv file) into an
// immutable frame; missing cells survive as empty strings, never imputed.
type DatasetReader interface {
	Read() (*dataset.Frame, error)
}
