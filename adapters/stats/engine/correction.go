package engine

import (
	"math"
	"sort"

	"gocompare/domain/core"
	"gocompare/domain/stats"
)

// Holm applies the Holm step-down procedure to a family of p-values.
// It returns the adjusted p-values and rejection decisions in input order.
// Rejection walks the sorted p-values against alpha/(m-k+1) and stops at the
// first failure; adjusted values are the running maximum of p*(m-k+1),
// clamped to 1.
func Holm(pValues []float64, alpha float64) (adjusted []float64, reject []bool) {
	m := len(pValues)
	adjusted = make([]float64, m)
	reject = make([]bool, m)
	if m == 0 {
		return adjusted, reject
	}

	order := sortOrder(pValues)

	failed := false
	runningMax := 0.0
	for k, idx := range order {
		p := pValues[idx]
		scale := float64(m - k)

		if !failed && p <= alpha/scale {
			reject[idx] = true
		} else {
			failed = true
		}

		runningMax = math.Max(runningMax, math.Min(1, p*scale))
		adjusted[idx] = runningMax
	}
	return adjusted, reject
}

// BenjaminiHochberg applies the Benjamini-Hochberg step-up procedure to a
// family of p-values. It returns q-values and rejection decisions in input
// order. All p-values ranked at or below the largest k with
// p(k) <= (k/m)*alpha are rejected; q-values are the running minimum from
// the top of p*m/k, clamped to 1.
func BenjaminiHochberg(pValues []float64, alpha float64) (qValues []float64, reject []bool) {
	m := len(pValues)
	qValues = make([]float64, m)
	reject = make([]bool, m)
	if m == 0 {
		return qValues, reject
	}

	order := sortOrder(pValues)

	maxRejected := -1
	for k, idx := range order {
		if pValues[idx] <= float64(k+1)/float64(m)*alpha {
			maxRejected = k
		}
	}
	for k := 0; k <= maxRejected; k++ {
		reject[order[k]] = true
	}

	runningMin := math.Inf(1)
	for k := m - 1; k >= 0; k-- {
		idx := order[k]
		runningMin = math.Min(runningMin, pValues[idx]*float64(m)/float64(k+1))
		qValues[idx] = math.Min(1, runningMin)
	}
	return qValues, reject
}

// CorrectByBlock applies both corrections to a flat list of outcomes,
// grouping families strictly by block key. P-values never compete across
// blocks: each block is corrected as its own family. Outcomes with NaN
// p-values are excluded from their family entirely and come back with NaN
// corrections and a zero family size. Output order matches input order.
func CorrectByBlock(outcomes []stats.TestOutcome, alpha float64) []stats.CorrectedOutcome {
	corrected := make([]stats.CorrectedOutcome, len(outcomes))
	for i, o := range outcomes {
		corrected[i] = stats.NewCorrectedOutcome(o)
	}

	blockOrder := []core.BlockKey{}
	blockIdx := map[core.BlockKey][]int{}
	for i, o := range outcomes {
		if _, seen := blockIdx[o.Block]; !seen {
			blockOrder = append(blockOrder, o.Block)
		}
		blockIdx[o.Block] = append(blockIdx[o.Block], i)
	}

	for _, block := range blockOrder {
		valid := []int{}
		for _, i := range blockIdx[block] {
			if !math.IsNaN(outcomes[i].PValue) {
				valid = append(valid, i)
			}
		}
		if len(valid) == 0 {
			continue
		}

		ps := make([]float64, len(valid))
		for j, i := range valid {
			ps[j] = outcomes[i].PValue
		}

		holmAdj, holmRej := Holm(ps, alpha)
		bhQ, bhRej := BenjaminiHochberg(ps, alpha)

		for j, i := range valid {
			corrected[i].HolmP = holmAdj[j]
			corrected[i].HolmReject = holmRej[j]
			corrected[i].BHQ = bhQ[j]
			corrected[i].BHReject = bhRej[j]
			corrected[i].FamilySize = len(valid)
		}
	}
	return corrected
}

// sortOrder returns the indexes of ps in ascending p order, stable for ties.
func sortOrder(ps []float64) []int {
	order := make([]int, len(ps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ps[order[a]] < ps[order[b]] })
	return order
}
