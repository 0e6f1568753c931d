package puzzle

// Dial sizes
const (
	DialPositions = 100
	DialDegrees   = 360
)

// CircularDistance is the shortest distance between a and b on a dial with size positions.
// A dial without positions has no distance.
func CircularDistance(a, b, size int) int {
	if size <= 0 {
		return 0
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	d %= size
	if size-d < d {
		return size - d
	}
	return d
}

// DialDistance is CircularDistance on the 0-99 combination dial.
func DialDistance(a, b int) int {
	return CircularDistance(a, b, DialPositions)
}

// WithinTolerance reports whether got is within tol of want (linear scale).
func WithinTolerance(got, want, tol int) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// Wrap normalises v into [0, size). It returns 0 when size is not positive.
func Wrap(v, size int) int {
	if size <= 0 {
		return 0
	}
	v %= size
	if v < 0 {
		v += size
	}
	return v
}
