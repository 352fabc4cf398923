// Package series provides the optional-value representation used by all
// indicator outputs. A Value is either a finite number or "not yet
// available" (warm-up region, insufficient history); zero is never used as
// a missing-value sentinel since 0 is a legitimate indicator value.
package series

// Value is one point of an indicator series.
type Value struct {
	Float64 float64
	Valid   bool
}

// Of wraps a finite number into a valid Value.
func Of(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Series is a slice of optional values aligned index-for-index with the
// input bar series it was computed from.
type Series []Value

// Make returns a series of n invalid values.
func Make(n int) Series {
	return make(Series, n)
}

// FromFloats wraps raw values into an all-valid series.
func FromFloats(values []float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Of(v)
	}
	return s
}

// Len returns the number of points in the series, defined or not.
func (s Series) Len() int {
	return len(s)
}

// Set marks index i valid with the given value.
func (s Series) Set(i int, f float64) {
	s[i] = Of(f)
}

// At returns the value at index i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	return s[i].Float64, s[i].Valid
}

// Last returns the most recent defined value.
func (s Series) Last() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i].Float64, true
		}
	}
	return 0, false
}

// FirstValid returns the index of the first defined value, or -1.
func (s Series) FirstValid() int {
	for i := range s {
		if s[i].Valid {
			return i
		}
	}
	return -1
}

// Floats returns the series as raw values with invalid entries zero-filled.
// Callers that need the validity mask must consult the series itself.
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v.Valid {
			out[i] = v.Float64
		}
	}
	return out
}
