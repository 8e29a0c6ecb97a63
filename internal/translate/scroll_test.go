package translate

import (
	"math"
	"testing"
)

func TestScrollAccumulatorExactThreshold(t *testing.T) {
	var acc ScrollAccumulator
	for i := 1; i <= 4; i++ {
		ticks, ok := acc.Accumulate(0.0021)
		if i < 4 && ok {
			t.Fatalf("call %d emitted %d ticks below threshold", i, ticks)
		}
		if i == 4 {
			if !ok || ticks != 1 {
				t.Fatalf("call 4 = (%d, %v), want (1, true)", ticks, ok)
			}
		}
	}
	if math.Abs(acc.Pending()) > 1e-12 {
		t.Fatalf("pending = %g, want 0", acc.Pending())
	}
}

func TestScrollAccumulatorCarriesRemainder(t *testing.T) {
	var acc ScrollAccumulator
	ticks, ok := acc.Accumulate(0.01)
	if !ok || ticks != 1 {
		t.Fatalf("first call = (%d, %v), want (1, true)", ticks, ok)
	}
	if want := 0.01 - ScrollQuantum; math.Abs(acc.Pending()-want) > 1e-12 {
		t.Fatalf("pending = %g, want %g", acc.Pending(), want)
	}

	// A large rate still consumes a single quantum per call.
	acc = ScrollAccumulator{}
	if _, ok := acc.Accumulate(0.05); !ok {
		t.Fatal("expected emission")
	}
	if want := 0.05 - ScrollQuantum; math.Abs(acc.Pending()-want) > 1e-12 {
		t.Fatalf("pending = %g, want %g", acc.Pending(), want)
	}
}

func TestScrollAccumulatorNegative(t *testing.T) {
	var acc ScrollAccumulator
	var emitted []int
	for i := 0; i < 8; i++ {
		if ticks, ok := acc.Accumulate(-0.0021); ok {
			emitted = append(emitted, ticks)
		}
	}
	if len(emitted) != 2 || emitted[0] != -1 || emitted[1] != -1 {
		t.Fatalf("emitted = %v, want [-1 -1]", emitted)
	}
}

func TestScrollAccumulatorOpposingRatesCancel(t *testing.T) {
	var acc ScrollAccumulator
	for i := 0; i < 10; i++ {
		if _, ok := acc.Accumulate(0.0021); ok && i < 3 {
			t.Fatalf("unexpected emission at %d", i)
		}
		if _, ok := acc.Accumulate(-0.0021); ok {
			t.Fatalf("opposing rate emitted at %d", i)
		}
	}
}
