// File: internal/hitmap/estimator.go
package hitmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/stat"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// Estimate is the result of a fluence estimation over a set of hit points.
type Estimate struct {
	// Peak is the highest local fluence found.
	Peak quantity.Fluence
	// Average is the energy-weighted mean fluence.
	Average quantity.Fluence
}

// Estimator derives a continuous fluence field from discrete hit points.
type Estimator interface {
	Estimate(points []HitPoint) (Estimate, error)
	Name() string
}

// ErrTooFewPoints is returned when an estimator cannot work with the number
// of hit points it was given.
var ErrTooFewPoints = errors.New("too few hit points for fluence estimation")

// weightedResult folds per-point fluence values into peak and
// energy-weighted average.
func weightedResult(fluences []float64, energies []float64) Estimate {
	var peak, weighted, total float64
	for i, f := range fluences {
		if f > peak {
			peak = f
		}
		weighted += energies[i] * f
		total += energies[i]
	}
	var avg float64
	if total > 0 {
		avg = weighted / total
	}
	return Estimate{Peak: quantity.Fluence(peak), Average: quantity.Fluence(avg)}
}

// Voronoi estimates local fluence as point energy divided by the area of
// the point's Voronoi cell, the dual of the Delaunay tessellation of the
// hit points. Interior cells are the exact polygons spanned by the
// circumcenters of the incident triangles; the open cells of convex-hull
// points are closed with the midpoints of the two adjacent hull edges and
// the point itself, confining them to the beam footprint.
type Voronoi struct{}

func (Voronoi) Name() string { return "voronoi" }

func (Voronoi) Estimate(points []HitPoint) (Estimate, error) {
	if len(points) < 3 {
		return Estimate{}, ErrTooFewPoints
	}
	dp := make([]delaunay.Point, len(points))
	for i, p := range points {
		dp[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	tri, err := delaunay.Triangulate(dp)
	if err != nil {
		return Estimate{}, fmt.Errorf("delaunay triangulation failed: %w", err)
	}
	ts, hs := tri.Triangles, tri.Halfedges
	if len(ts) == 0 {
		return Estimate{}, errors.New("hit points are collinear, cannot tessellate")
	}

	// Voronoi vertices are the triangle circumcenters.
	centers := make([]delaunay.Point, len(ts)/3)
	for i := range centers {
		centers[i] = circumcenter(dp[ts[3*i]], dp[ts[3*i+1]], dp[ts[3*i+2]])
	}

	// One incoming halfedge per point. Hull points get their boundary
	// halfedge so the cell walk starts at the open side and sweeps every
	// incident triangle before running off the hull.
	inedges := make([]int, len(points))
	for i := range inedges {
		inedges[i] = -1
	}
	for e := range ts {
		p := ts[nextHalfedge(e)]
		if inedges[p] == -1 || hs[e] == -1 {
			inedges[p] = e
		}
	}

	areas := make([]float64, len(points))
	var cell []delaunay.Point
	for p := range points {
		e0 := inedges[p]
		if e0 == -1 {
			// Duplicate point, not part of the tessellation.
			continue
		}
		cell = cell[:0]
		if hs[e0] == -1 {
			q := dp[ts[e0]]
			cell = append(cell, delaunay.Point{X: (q.X + dp[p].X) / 2, Y: (q.Y + dp[p].Y) / 2})
		}
		for e := e0; ; {
			cell = append(cell, centers[e/3])
			out := nextHalfedge(e)
			e = hs[out]
			if e == -1 {
				q := dp[ts[nextHalfedge(out)]]
				cell = append(cell,
					delaunay.Point{X: (q.X + dp[p].X) / 2, Y: (q.Y + dp[p].Y) / 2},
					dp[p])
				break
			}
			if e == e0 {
				break
			}
		}
		areas[p] = polygonArea(cell)
	}

	fluences := make([]float64, len(points))
	energies := make([]float64, len(points))
	for i, p := range points {
		energies[i] = p.Energy.Joules()
		if areas[i] > 0 {
			fluences[i] = energies[i] / areas[i]
		}
	}
	return weightedResult(fluences, energies), nil
}

// nextHalfedge steps to the next halfedge of the same triangle.
func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// circumcenter returns the center of the circle through the three points. A
// degenerate triangle falls back to its centroid.
func circumcenter(a, b, c delaunay.Point) delaunay.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	ex, ey := c.X-a.X, c.Y-a.Y
	bl := dx*dx + dy*dy
	cl := ex*ex + ey*ey
	d := 2 * (dx*ey - dy*ex)
	if d == 0 {
		return delaunay.Point{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3}
	}
	return delaunay.Point{
		X: a.X + (ey*bl-dy*cl)/d,
		Y: a.Y + (dx*cl-ex*bl)/d,
	}
}

// polygonArea is the shoelace area of the polygon, orientation-free.
func polygonArea(poly []delaunay.Point) float64 {
	var s float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		s += p.X*q.Y - p.Y*q.X
	}
	return math.Abs(s) / 2
}

// KDE estimates the fluence field with an energy-weighted Gaussian kernel
// density estimate evaluated at the hit points themselves. A non-positive
// Bandwidth selects Silverman's rule of thumb per axis.
type KDE struct {
	Bandwidth float64 // meters; <= 0 selects automatic bandwidth
}

func (KDE) Name() string { return "kde" }

func (k KDE) Estimate(points []HitPoint) (Estimate, error) {
	if len(points) < 2 {
		return Estimate{}, ErrTooFewPoints
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	energies := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], energies[i] = p.X, p.Y, p.Energy.Joules()
	}
	hx, hy := k.Bandwidth, k.Bandwidth
	if k.Bandwidth <= 0 {
		// Silverman's rule for two dimensions: h = sigma * n^(-1/6).
		factor := math.Pow(float64(len(points)), -1.0/6.0)
		hx = stat.StdDev(xs, energies) * factor
		hy = stat.StdDev(ys, energies) * factor
	}
	if hx <= 0 || hy <= 0 {
		return Estimate{}, errors.New("kernel bandwidth is degenerate (all hit points identical?)")
	}
	norm := 1.0 / (2 * math.Pi * hx * hy)
	fluences := make([]float64, len(points))
	for i := range points {
		var acc float64
		for j := range points {
			dx := (xs[i] - xs[j]) / hx
			dy := (ys[i] - ys[j]) / hy
			acc += energies[j] * math.Exp(-0.5*(dx*dx+dy*dy))
		}
		fluences[i] = acc * norm
	}
	return weightedResult(fluences, energies), nil
}

// Binning estimates fluence by accumulating hit energy on a regular grid
// over the bounding box of the hit points.
type Binning struct {
	NX int
	NY int
}

func (Binning) Name() string { return "binning" }

func (b Binning) Estimate(points []HitPoint) (Estimate, error) {
	if len(points) == 0 {
		return Estimate{}, ErrTooFewPoints
	}
	nx, ny := b.NX, b.NY
	if nx <= 0 {
		nx = 64
	}
	if ny <= 0 {
		ny = 64
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	w, h := maxX-minX, maxY-minY
	if w <= 0 || h <= 0 {
		return Estimate{}, errors.New("hit points are collinear, cannot bin")
	}
	cellArea := (w / float64(nx)) * (h / float64(ny))
	cells := make([]float64, nx*ny)
	for _, p := range points {
		ix := int(float64(nx) * (p.X - minX) / w)
		iy := int(float64(ny) * (p.Y - minY) / h)
		if ix == nx {
			ix--
		}
		if iy == ny {
			iy--
		}
		cells[iy*nx+ix] += p.Energy.Joules()
	}
	fluences := make([]float64, 0, len(cells))
	energies := make([]float64, 0, len(cells))
	for _, e := range cells {
		if e == 0 {
			continue
		}
		fluences = append(fluences, e/cellArea)
		energies = append(energies, e)
	}
	return weightedResult(fluences, energies), nil
}

// HelperRays estimates fluence analytically from helper rays. Hit points
// must be recorded as strided groups of four: the primary ray followed by
// three helpers bracketing a small area element around it. The fluence of
// the primary is its energy divided by the parallelogram spanned by the two
// axis helpers; the element's area evolution under propagation is thereby
// captured without any tessellation.
type HelperRays struct{}

func (HelperRays) Name() string { return "helper-rays" }

func (HelperRays) Estimate(points []HitPoint) (Estimate, error) {
	if len(points) < 4 || len(points)%4 != 0 {
		return Estimate{}, fmt.Errorf("%w: helper-ray estimation needs groups of 4 points, got %d", ErrTooFewPoints, len(points))
	}
	n := len(points) / 4
	fluences := make([]float64, 0, n)
	energies := make([]float64, 0, n)
	for i := 0; i < len(points); i += 4 {
		p, h1, h2 := points[i], points[i+1], points[i+2]
		area := math.Abs((h1.X-p.X)*(h2.Y-p.Y) - (h2.X-p.X)*(h1.Y-p.Y))
		if area <= 0 {
			continue
		}
		fluences = append(fluences, p.Energy.Joules()/area)
		energies = append(energies, p.Energy.Joules())
	}
	if len(fluences) == 0 {
		return Estimate{}, errors.New("all helper-ray area elements are degenerate")
	}
	return weightedResult(fluences, energies), nil
}

// ByName returns the estimator registered under the given name.
func ByName(name string) (Estimator, error) {
	switch name {
	case "voronoi", "":
		return Voronoi{}, nil
	case "kde":
		return KDE{}, nil
	case "binning":
		return Binning{}, nil
	case "helper-rays":
		return HelperRays{}, nil
	default:
		return nil, fmt.Errorf("unknown fluence estimator %q", name)
	}
}
