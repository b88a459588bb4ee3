package region

// Range is an interval of normalized values
type Range struct {
	Lo float32 `json:"lo" yaml:"lo"`
	Hi float32 `json:"hi" yaml:"hi"`
}

// NewRange builds a range, swapping the bounds if they are inverted
func NewRange(lo, hi float32) Range {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Range{Lo: lo, Hi: hi}
}

// Contains tests lo <= v < hi
func (r Range) Contains(v float32) bool {
	return v >= r.Lo && v < r.Hi
}

// ContainsWithEnd tests lo <= v <= hi
func (r Range) ContainsWithEnd(v float32) bool {
	return v >= r.Lo && v <= r.Hi
}

// Clamp pins v into the range
func (r Range) Clamp(v float32) float32 {
	if v < r.Lo {
		return r.Lo
	}
	if v > r.Hi {
		return r.Hi
	}
	return v
}

// Valid reports whether lo <= hi
func (r Range) Valid() bool {
	return r.Lo <= r.Hi
}

// IntRange is a closed interval of note numbers
type IntRange struct {
	Lo int `json:"lo" yaml:"lo"`
	Hi int `json:"hi" yaml:"hi"`
}

func (r IntRange) Contains(n int) bool {
	return n >= r.Lo && n <= r.Hi
}

func (r IntRange) Valid() bool {
	return r.Lo <= r.Hi
}
