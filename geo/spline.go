package geo

import (
	m "math"

	"github.com/pkg/errors"
)

// CubicSpline is a 1-D natural cubic spline through (xs, ys) samples,
// evaluated with linear extrapolation outside the sample range.
type CubicSpline struct {
	xs, ys []float64
	m2     []float64 // second derivatives at the knots
}

func NewCubicSpline(xs, ys []float64) (*CubicSpline, error) {
	if len(xs) != len(ys) {
		return nil, errors.New("spline inputs have mismatched lengths")
	}
	if len(xs) < 3 {
		return nil, errors.New("not enough samples to fit a cubic spline")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, errors.New("spline samples must be strictly increasing")
		}
	}

	n := len(xs)
	// Natural boundary conditions: second derivative zero at both ends.
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	d := make([]float64, n)
	b[0], b[n-1] = 1, 1
	for i := 1; i < n-1; i++ {
		h0 := xs[i] - xs[i-1]
		h1 := xs[i+1] - xs[i]
		a[i] = h0 / 6
		b[i] = (h0 + h1) / 3
		c[i] = h1 / 6
		d[i] = (ys[i+1]-ys[i])/h1 - (ys[i]-ys[i-1])/h0
	}

	m2, err := solveTridiagonal(a, b, c, d)
	if err != nil {
		return nil, errors.Wrap(err, "could not solve spline system")
	}

	s := &CubicSpline{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		m2: m2,
	}
	return s, nil
}

// At evaluates the spline. Outside the knot range the value continues
// linearly at the boundary slope.
func (s *CubicSpline) At(x float64) float64 {
	n := len(s.xs)
	if x <= s.xs[0] {
		return s.ys[0] + s.slopeAt(0)*(x-s.xs[0])
	}
	if x >= s.xs[n-1] {
		return s.ys[n-1] + s.slopeAt(n-1)*(x-s.xs[n-1])
	}

	// Binary search for the interval containing x.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if s.xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}

	h := s.xs[hi] - s.xs[lo]
	t0 := s.xs[hi] - x
	t1 := x - s.xs[lo]
	return s.m2[lo]*t0*t0*t0/(6*h) + s.m2[hi]*t1*t1*t1/(6*h) +
		(s.ys[lo]/h-s.m2[lo]*h/6)*t0 + (s.ys[hi]/h-s.m2[hi]*h/6)*t1
}

func (s *CubicSpline) slopeAt(i int) float64 {
	n := len(s.xs)
	if i == 0 {
		h := s.xs[1] - s.xs[0]
		return (s.ys[1]-s.ys[0])/h - h*(2*s.m2[0]+s.m2[1])/6
	}
	h := s.xs[n-1] - s.xs[n-2]
	return (s.ys[n-1]-s.ys[n-2])/h + h*(s.m2[n-2]+2*s.m2[n-1])/6
}

// solveTridiagonal solves a tridiagonal system with the Thomas algorithm.
// a is the sub-diagonal, b the diagonal, c the super-diagonal.
func solveTridiagonal(a, b, c, d []float64) ([]float64, error) {
	n := len(b)
	cp := make([]float64, n)
	dp := make([]float64, n)
	if b[0] == 0 {
		return nil, errors.New("singular tridiagonal system")
	}
	cp[0] = c[0] / b[0]
	dp[0] = d[0] / b[0]
	for i := 1; i < n; i++ {
		den := b[i] - a[i]*cp[i-1]
		if den == 0 {
			return nil, errors.New("singular tridiagonal system")
		}
		cp[i] = c[i] / den
		dp[i] = (d[i] - a[i]*dp[i-1]) / den
	}
	x := make([]float64, n)
	x[n-1] = dp[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = dp[i] - cp[i]*x[i+1]
	}
	return x, nil
}

// solveCyclicTridiagonal solves a tridiagonal system with wraparound corner
// entries (a[0] couples row 0 to the last column, c[n-1] couples the last row
// to column 0) using the Sherman-Morrison correction.
func solveCyclicTridiagonal(a, b, c, d []float64) ([]float64, error) {
	n := len(b)
	if n < 3 {
		return nil, errors.New("cyclic system too small")
	}

	alpha := a[0]
	beta := c[n-1]
	gamma := -b[0]

	bm := make([]float64, n)
	copy(bm, b)
	bm[0] = b[0] - gamma
	bm[n-1] = b[n-1] - alpha*beta/gamma

	am := append([]float64(nil), a...)
	cm := append([]float64(nil), c...)
	am[0] = 0
	cm[n-1] = 0

	x, err := solveTridiagonal(am, bm, cm, d)
	if err != nil {
		return nil, err
	}

	u := make([]float64, n)
	u[0] = gamma
	u[n-1] = alpha
	z, err := solveTridiagonal(am, bm, cm, u)
	if err != nil {
		return nil, err
	}

	den := 1 + z[0] + beta*z[n-1]/gamma
	if den == 0 {
		return nil, errors.New("singular cyclic system")
	}
	factor := (x[0] + beta*x[n-1]/gamma) / den
	for i := range x {
		x[i] -= factor * z[i]
	}
	return x, nil
}

// periodicSpline holds a closed parametric cubic spline for one coordinate.
type periodicSpline struct {
	ts     []float64 // knot parameters, ascending, period at the end
	ys     []float64
	m2     []float64
	period float64
}

func newPeriodicSpline(ts, ys []float64, period float64) (*periodicSpline, error) {
	n := len(ts)
	if n < 3 {
		return nil, errors.New("not enough points for a periodic spline")
	}

	h := make([]float64, n)
	for i := 0; i < n-1; i++ {
		h[i] = ts[i+1] - ts[i]
		if h[i] <= 0 {
			return nil, errors.New("degenerate geometry: repeated parameter values")
		}
	}
	h[n-1] = period - ts[n-1] + ts[0]
	if h[n-1] <= 0 {
		return nil, errors.New("degenerate geometry: period does not close")
	}

	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		next := (i + 1) % n
		a[i] = h[prev] / 6
		b[i] = (h[prev] + h[i]) / 3
		c[i] = h[i] / 6
		d[i] = (ys[next]-ys[i])/h[i] - (ys[i]-ys[prev])/h[prev]
	}

	m2, err := solveCyclicTridiagonal(a, b, c, d)
	if err != nil {
		return nil, err
	}

	return &periodicSpline{
		ts:     append([]float64(nil), ts...),
		ys:     append([]float64(nil), ys...),
		m2:     m2,
		period: period,
	}, nil
}

func (s *periodicSpline) At(t float64) float64 {
	n := len(s.ts)
	t = m.Mod(t-s.ts[0], s.period)
	if t < 0 {
		t += s.period
	}
	t += s.ts[0]

	// Find the interval; the last interval wraps to the first knot.
	lo := n - 1
	for i := 0; i < n-1; i++ {
		if t < s.ts[i+1] {
			lo = i
			break
		}
	}
	hi := (lo + 1) % n
	var h, tHi float64
	if lo == n-1 {
		h = s.period - s.ts[n-1] + s.ts[0]
		tHi = s.ts[n-1] + h
	} else {
		h = s.ts[hi] - s.ts[lo]
		tHi = s.ts[hi]
	}

	t0 := tHi - t
	t1 := t - s.ts[lo]
	return s.m2[lo]*t0*t0*t0/(6*h) + s.m2[hi]*t1*t1*t1/(6*h) +
		(s.ys[lo]/h-s.m2[lo]*h/6)*t0 + (s.ys[hi]/h-s.m2[hi]*h/6)*t1
}

// dedupe drops consecutive points closer together than the closure tolerance.
func dedupe(points []Vec2) []Vec2 {
	if len(points) == 0 {
		return points
	}
	out := make([]Vec2, 1, len(points))
	out[0] = points[0]
	for _, p := range points[1:] {
		if p.DistanceTo(out[len(out)-1]) >= ClosureTolerance {
			out = append(out, p)
		}
	}
	return out
}

// ResampleClosed fits a periodic parametric cubic spline through a closed
// polyline and evaluates it at count evenly spaced parameter values. The
// result has exactly count points with the last equal to the first. When the
// periodic fit fails on degenerate geometry it falls back to a non-periodic
// fit with forced closure.
func ResampleClosed(points []Vec2, count int) ([]Vec2, error) {
	if count < 4 {
		return nil, errors.New("resample count must be at least 4")
	}
	points = Close(points)
	// Drop the duplicate closing point; the period supplies it.
	unique := dedupe(points[:len(points)-1])
	if len(unique) < 3 {
		return nil, errors.New("not enough distinct points to resample")
	}

	ts := ArcLengths(unique)
	period := ts[len(ts)-1] + unique[len(unique)-1].DistanceTo(unique[0])

	xs := make([]float64, len(unique))
	ys := make([]float64, len(unique))
	for i, p := range unique {
		xs[i] = p.X
		ys[i] = p.Y
	}

	sx, errX := newPeriodicSpline(ts, xs, period)
	sy, errY := newPeriodicSpline(ts, ys, period)
	if errX != nil || errY != nil {
		if errX == nil {
			errX = errY
		}
		return resampleFallback(unique, count, errX)
	}

	out := make([]Vec2, count)
	for i := 0; i < count-1; i++ {
		t := period * float64(i) / float64(count-1)
		out[i] = Vec2{X: sx.At(t), Y: sy.At(t)}
	}
	out[count-1] = out[0]
	return out, nil
}

// resampleFallback fits non-periodic splines through the points plus the
// closing point and forces closure afterwards.
func resampleFallback(unique []Vec2, count int, cause error) ([]Vec2, error) {
	closed := append(append([]Vec2(nil), unique...), unique[0])
	ts := ArcLengths(closed)
	xs := make([]float64, len(closed))
	ys := make([]float64, len(closed))
	for i, p := range closed {
		xs[i] = p.X
		ys[i] = p.Y
	}
	sx, err := NewCubicSpline(ts, xs)
	if err != nil {
		return nil, errors.Wrap(cause, "periodic and fallback spline fits both failed")
	}
	sy, err := NewCubicSpline(ts, ys)
	if err != nil {
		return nil, errors.Wrap(cause, "periodic and fallback spline fits both failed")
	}

	total := ts[len(ts)-1]
	out := make([]Vec2, count)
	for i := 0; i < count; i++ {
		t := total * float64(i) / float64(count-1)
		out[i] = Vec2{X: sx.At(t), Y: sy.At(t)}
	}
	ForceClosure(out)
	return out, nil
}
