package engine

import (
	"math"
	"sort"
)

// ContingencyTable is an observed-count cross-tabulation of group label
// against category, with both dimensions in lexicographic order.
type ContingencyTable struct {
	Rows   []string // group labels
	Cols   []string // category levels
	Counts [][]int  // Counts[row][col]
	Total  int
}

// NewContingencyTable cross-tabulates (group, category) observation pairs.
// Every observed group label becomes a row, not just the two under
// comparison, so an unexpected third label is visible in the baseline
// instead of silently dropped.
func NewContingencyTable(pairs [][2]string) ContingencyTable {
	rowSet := make(map[string]bool)
	colSet := make(map[string]bool)
	for _, p := range pairs {
		rowSet[p[0]] = true
		colSet[p[1]] = true
	}

	table := ContingencyTable{
		Rows: sortedKeys(rowSet),
		Cols: sortedKeys(colSet),
	}

	rowIdx := make(map[string]int, len(table.Rows))
	for i, r := range table.Rows {
		rowIdx[r] = i
	}
	colIdx := make(map[string]int, len(table.Cols))
	for i, c := range table.Cols {
		colIdx[c] = i
	}

	table.Counts = make([][]int, len(table.Rows))
	for i := range table.Counts {
		table.Counts[i] = make([]int, len(table.Cols))
	}
	for _, p := range pairs {
		table.Counts[rowIdx[p[0]]][colIdx[p[1]]]++
		table.Total++
	}
	return table
}

// DegreesOfFreedom returns (rows-1)*(cols-1), zero for a degenerate table.
func (t ContingencyTable) DegreesOfFreedom() int {
	if len(t.Rows) < 2 || len(t.Cols) < 2 {
		return 0
	}
	return (len(t.Rows) - 1) * (len(t.Cols) - 1)
}

// ChiSquareResult holds the independence test over a contingency table.
type ChiSquareResult struct {
	ChiSquare float64
	DF        int
	PValue    float64
	CramersV  float64
	N         int
}

// ChiSquareTest computes the chi-square statistic for independence with
// Yates continuity correction on 2x2 tables, plus Cramér's V effect size.
// A degenerate table (one row or one column) yields chi-square 0, p = 1,
// and an undefined V.
func ChiSquareTest(table ContingencyTable) ChiSquareResult {
	result := ChiSquareResult{
		DF: table.DegreesOfFreedom(),
		N:  table.Total,
	}

	if result.DF == 0 || table.Total == 0 {
		result.PValue = 1
		result.CramersV = math.NaN()
		return result
	}

	rows := len(table.Rows)
	cols := len(table.Cols)
	rowTotals := make([]int, rows)
	colTotals := make([]int, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rowTotals[i] += table.Counts[i][j]
			colTotals[j] += table.Counts[i][j]
		}
	}

	// Half-count correction on 2x2 tables only.
	yates := 0.0
	if result.DF == 1 {
		yates = 0.5
	}

	chiSq := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := float64(rowTotals[i]*colTotals[j]) / float64(table.Total)
			if expected > 0 {
				dev := math.Max(0, math.Abs(float64(table.Counts[i][j])-expected)-yates)
				chiSq += dev * dev / expected
			}
		}
	}
	result.ChiSquare = chiSq
	result.PValue = NewDistributions().ChiSquarePValue(chiSq, result.DF)

	// Effect size: Cramér's V = sqrt(chi2 / (n * min(r-1, c-1)))
	minDim := math.Min(float64(rows-1), float64(cols-1))
	if minDim > 0 {
		result.CramersV = math.Sqrt(chiSq / (float64(table.Total) * minDim))
	} else {
		result.CramersV = math.NaN()
	}

	return result
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
