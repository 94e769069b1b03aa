package engine

import (
	"math"
	"testing"

	"gocompare/domain/core"
	"gocompare/domain/stats"
)

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol
}

func TestHolm_SteppedFamily(t *testing.T) {
	p := []float64{0.01, 0.02, 0.03, 0.04, 0.05}

	adjusted, reject := Holm(p, 0.05)

	wantAdjusted := []float64{0.05, 0.08, 0.09, 0.09, 0.09}
	wantReject := []bool{true, false, false, false, false}
	for i := range p {
		if !almostEqual(adjusted[i], wantAdjusted[i], 1e-12) {
			t.Errorf("adjusted[%d] = %v, want %v", i, adjusted[i], wantAdjusted[i])
		}
		if reject[i] != wantReject[i] {
			t.Errorf("reject[%d] = %v, want %v", i, reject[i], wantReject[i])
		}
	}
}

func TestBenjaminiHochberg_SteppedFamily(t *testing.T) {
	p := []float64{0.01, 0.02, 0.03, 0.04, 0.05}

	q, reject := BenjaminiHochberg(p, 0.05)

	// Every rank satisfies p(k) <= k/m * alpha at the top rank, so the
	// whole family is rejected and every q-value collapses to 0.05.
	for i := range p {
		if !almostEqual(q[i], 0.05, 1e-12) {
			t.Errorf("q[%d] = %v, want 0.05", i, q[i])
		}
		if !reject[i] {
			t.Errorf("reject[%d] = false, want true", i)
		}
	}
}

// The fifteen p-values from Benjamini and Hochberg (1995), where step-up
// rejects four hypotheses and step-down Holm only three.
func TestCorrections_BenjaminiHochberg1995Family(t *testing.T) {
	p := []float64{0.0001, 0.0004, 0.0019, 0.0095, 0.0201, 0.0278, 0.0298,
		0.0344, 0.0459, 0.3240, 0.4262, 0.5719, 0.6528, 0.7590, 1.0}

	_, holmReject := Holm(p, 0.05)
	_, bhReject := BenjaminiHochberg(p, 0.05)

	holmCount, bhCount := 0, 0
	for i := range p {
		if holmReject[i] {
			holmCount++
		}
		if bhReject[i] {
			bhCount++
		}
	}
	if holmCount != 3 {
		t.Errorf("Holm rejected %d, want 3", holmCount)
	}
	if bhCount != 4 {
		t.Errorf("Benjamini-Hochberg rejected %d, want 4", bhCount)
	}
	for i := 0; i < 4; i++ {
		if !bhReject[i] {
			t.Errorf("BH should reject the four smallest p-values, missed index %d", i)
		}
	}
}

func TestHolm_InputOrderPreserved(t *testing.T) {
	p := []float64{0.04, 0.01, 0.03}

	adjusted, reject := Holm(p, 0.05)

	// Sorted: 0.01*3=0.03, then max(0.03, 0.03*2)=0.06, then max stays 0.06.
	wantAdjusted := []float64{0.06, 0.03, 0.06}
	wantReject := []bool{false, true, false}
	for i := range p {
		if !almostEqual(adjusted[i], wantAdjusted[i], 1e-12) {
			t.Errorf("adjusted[%d] = %v, want %v", i, adjusted[i], wantAdjusted[i])
		}
		if reject[i] != wantReject[i] {
			t.Errorf("reject[%d] = %v, want %v", i, reject[i], wantReject[i])
		}
	}
}

func TestCorrections_EmptyAndClamped(t *testing.T) {
	adjusted, reject := Holm(nil, 0.05)
	if len(adjusted) != 0 || len(reject) != 0 {
		t.Errorf("empty family: got %v, %v", adjusted, reject)
	}

	// Large p-values scale past 1 and must clamp.
	adjusted, _ = Holm([]float64{0.9, 0.95}, 0.05)
	if adjusted[0] != 1 || adjusted[1] != 1 {
		t.Errorf("adjusted = %v, want clamped to 1", adjusted)
	}
	// The running minimum pulls both q-values down to the top rank's 0.95.
	q, _ := BenjaminiHochberg([]float64{0.9, 0.95}, 0.05)
	if !almostEqual(q[0], 0.95, 1e-12) || !almostEqual(q[1], 0.95, 1e-12) {
		t.Errorf("q = %v, want both 0.95", q)
	}
}

func mkOutcome(t *testing.T, variable string, block string, p float64) stats.TestOutcome {
	t.Helper()
	o := stats.MustNewTestOutcome(core.VariableKey(variable), core.BlockKey(block), stats.StrategyWelch)
	o.PValue = p
	return *o
}

func TestCorrectByBlock_FamiliesAreBlockScoped(t *testing.T) {
	// Interleaved input order; families must form by block key, and in a
	// merged family of three 0.04 would not survive Holm.
	outcomes := []stats.TestOutcome{
		mkOutcome(t, "v1", "cognitive", 0.01),
		mkOutcome(t, "v3", "motivation", 0.03),
		mkOutcome(t, "v2", "cognitive", 0.04),
	}

	corrected := CorrectByBlock(outcomes, 0.05)

	if len(corrected) != 3 {
		t.Fatalf("got %d corrected outcomes, want 3", len(corrected))
	}
	// Output order mirrors input order.
	for i, want := range []string{"v1", "v3", "v2"} {
		if corrected[i].Raw.Variable.String() != want {
			t.Errorf("corrected[%d] = %q, want %q", i, corrected[i].Raw.Variable, want)
		}
	}

	for i, wantFamily := range []int{2, 1, 2} {
		if corrected[i].FamilySize != wantFamily {
			t.Errorf("family size[%d] = %d, want %d", i, corrected[i].FamilySize, wantFamily)
		}
		if !corrected[i].HolmReject {
			t.Errorf("HolmReject[%d] = false, want true within block-scoped families", i)
		}
		if !corrected[i].BHReject {
			t.Errorf("BHReject[%d] = false, want true within block-scoped families", i)
		}
	}

	// Within the cognitive family of two: 0.01*2 and 0.04*1 -> 0.04.
	if !almostEqual(corrected[0].HolmP, 0.02, 1e-12) {
		t.Errorf("HolmP[0] = %v, want 0.02", corrected[0].HolmP)
	}
	if !almostEqual(corrected[2].HolmP, 0.04, 1e-12) {
		t.Errorf("HolmP[2] = %v, want 0.04", corrected[2].HolmP)
	}
	// Singleton family passes through untouched.
	if !almostEqual(corrected[1].HolmP, 0.03, 1e-12) || !almostEqual(corrected[1].BHQ, 0.03, 1e-12) {
		t.Errorf("singleton family: HolmP=%v BHQ=%v, want both 0.03", corrected[1].HolmP, corrected[1].BHQ)
	}
}

func TestCorrectByBlock_ExcludesNaN(t *testing.T) {
	outcomes := []stats.TestOutcome{
		mkOutcome(t, "v1", "cognitive", 0.01),
		mkOutcome(t, "v2", "cognitive", math.NaN()),
		mkOutcome(t, "v3", "cognitive", 0.02),
	}

	corrected := CorrectByBlock(outcomes, 0.05)

	// The NaN outcome never joins the family.
	if !math.IsNaN(corrected[1].HolmP) || !math.IsNaN(corrected[1].BHQ) {
		t.Errorf("NaN outcome got corrections: HolmP=%v BHQ=%v", corrected[1].HolmP, corrected[1].BHQ)
	}
	if corrected[1].HolmReject || corrected[1].BHReject {
		t.Error("NaN outcome must never be rejected")
	}
	if corrected[1].FamilySize != 0 {
		t.Errorf("NaN outcome family size = %d, want 0", corrected[1].FamilySize)
	}

	// The valid pair is corrected as a family of two.
	for _, i := range []int{0, 2} {
		if corrected[i].FamilySize != 2 {
			t.Errorf("family size[%d] = %d, want 2", i, corrected[i].FamilySize)
		}
	}
	if !almostEqual(corrected[0].HolmP, 0.02, 1e-12) {
		t.Errorf("HolmP[0] = %v, want 0.02", corrected[0].HolmP)
	}
	// Raw outcomes pass through unmodified.
	if !math.IsNaN(corrected[1].Raw.PValue) || corrected[0].Raw.PValue != 0.01 {
		t.Error("raw outcomes must be embedded untouched")
	}
}

func TestCorrectByBlock_Empty(t *testing.T) {
	corrected := CorrectByBlock(nil, 0.05)
	if len(corrected) != 0 {
		t.Errorf("got %d corrected outcomes, want 0", len(corrected))
	}
}
