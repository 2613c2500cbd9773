// File: internal/hitmap/hitmap.go

// Package hitmap accumulates ray strike points per optical surface and
// derives fluence (energy per area) statistics from them. Strikes are
// bucketed by bounce level and by the identity of the ray bundle that
// produced them, so a ghost-focus analysis can report which reflection
// order threatens a surface.
package hitmap

import (
	"github.com/google/uuid"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// HitPoint is a single ray strike on a surface, expressed in the surface's
// local X-Y plane (meters).
type HitPoint struct {
	X      float64
	Y      float64
	Energy quantity.Energy
}

// CriticalFluence records a fluence estimate that exceeded a surface's
// damage threshold. It is informational and never aborts an analysis.
type CriticalFluence struct {
	Bundle uuid.UUID
	Bounce int
	Peak   quantity.Fluence
}

// bundleHits groups strikes of one bounce level by originating bundle.
type bundleHits map[uuid.UUID][]HitPoint

// HitMap stores all strikes recorded on one surface during a run. It is
// reset explicitly between independent runs, never implicitly.
type HitMap struct {
	bounces  []bundleHits
	critical []CriticalFluence
}

// New returns an empty hit map.
func New() *HitMap { return &HitMap{} }

// Add records a strike at the given bounce level for the given bundle.
func (m *HitMap) Add(bounce int, bundle uuid.UUID, hp HitPoint) {
	for len(m.bounces) <= bounce {
		m.bounces = append(m.bounces, bundleHits{})
	}
	m.bounces[bounce][bundle] = append(m.bounces[bounce][bundle], hp)
}

// IsEmpty reports whether no strikes have been recorded.
func (m *HitMap) IsEmpty() bool {
	for _, b := range m.bounces {
		for _, pts := range b {
			if len(pts) > 0 {
				return false
			}
		}
	}
	return true
}

// MaxBounce returns the highest bounce level with recorded strikes, or -1.
func (m *HitMap) MaxBounce() int { return len(m.bounces) - 1 }

// Hits returns the strikes of one (bounce, bundle) bucket, or nil.
func (m *HitMap) Hits(bounce int, bundle uuid.UUID) []HitPoint {
	if bounce < 0 || bounce >= len(m.bounces) {
		return nil
	}
	return m.bounces[bounce][bundle]
}

// Bundles returns the bundle ids recorded at a bounce level.
func (m *HitMap) Bundles(bounce int) []uuid.UUID {
	if bounce < 0 || bounce >= len(m.bounces) {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(m.bounces[bounce]))
	for id := range m.bounces[bounce] {
		ids = append(ids, id)
	}
	return ids
}

// Merged returns all strikes of all bounce levels and bundles in one slice.
func (m *HitMap) Merged() []HitPoint {
	var out []HitPoint
	for _, b := range m.bounces {
		for _, pts := range b {
			out = append(out, pts...)
		}
	}
	return out
}

// TotalEnergy sums the energy of all recorded strikes.
func (m *HitMap) TotalEnergy() quantity.Energy {
	var total quantity.Energy
	for _, b := range m.bounces {
		for _, pts := range b {
			for _, p := range pts {
				total += p.Energy
			}
		}
	}
	return total
}

// Reset discards all strikes and critical-fluence records.
func (m *HitMap) Reset() {
	m.bounces = nil
	m.critical = nil
}

// Critical returns the recorded critical-fluence events.
func (m *HitMap) Critical() []CriticalFluence { return m.critical }

// EvaluateCritical estimates the peak fluence of every (bounce, bundle)
// bucket and records an event for each bucket exceeding the threshold.
// A non-positive threshold disables the check. Buckets the estimator cannot
// handle (for example fewer points than the estimator needs) are skipped.
func (m *HitMap) EvaluateCritical(threshold quantity.Fluence, est Estimator) []CriticalFluence {
	if threshold <= 0 || est == nil {
		return nil
	}
	var added []CriticalFluence
	for bounce, b := range m.bounces {
		for id, pts := range b {
			res, err := est.Estimate(pts)
			if err != nil {
				continue
			}
			if res.Peak > threshold {
				cf := CriticalFluence{Bundle: id, Bounce: bounce, Peak: res.Peak}
				m.critical = append(m.critical, cf)
				added = append(added, cf)
			}
		}
	}
	return added
}
