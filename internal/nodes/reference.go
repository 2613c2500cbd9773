// File: internal/nodes/reference.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// NodeReference aliases another node so the same physical element can
// appear at several bench positions, e.g. a mirror folded into a double
// pass. Analysis goes through the referent with the reference's own
// inversion state applied for the duration of the call; hit maps accumulate
// on the referent's surfaces.
type NodeReference struct {
	*engine.NodeAttr
	target engine.Node
}

// NewNodeReference creates an alias for target. The reference exposes the
// referent's port names; output surfaces are shared with the referent.
func NewNodeReference(name string, target engine.Node) (*NodeReference, error) {
	if target == nil {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "node reference %q needs a target", name)
	}
	r := &NodeReference{NodeAttr: engine.NewNodeAttr(name, TypeNodeReference), target: target}
	ports := target.Ports()
	for _, p := range ports.Inputs() {
		if err := r.Ports().AddInput(p); err != nil {
			return nil, err
		}
	}
	for _, p := range ports.Outputs() {
		if err := r.Ports().AddOutput(p, ports.Surface(p)); err != nil {
			return nil, err
		}
	}
	_ = r.Properties().DefineReadOnly("reference to", target.Name())
	return r, nil
}

// Target returns the referent node.
func (r *NodeReference) Target() engine.Node { return r.target }

// Analyze runs the referent with the reference's inversion state, restoring
// the referent afterwards.
func (r *NodeReference) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	prev := r.target.Inverted()
	if prev != r.Inverted() {
		if err := r.target.SetInverted(r.Inverted()); err != nil {
			return nil, err
		}
		defer func() { _ = r.target.SetInverted(prev) }()
	}
	return r.target.Analyze(ctx, inputs)
}

// PendingGhosts exposes ghost bundles buffered inside the referent so the
// traversal does not skip the reference on re-emission passes.
func (r *NodeReference) PendingGhosts() int {
	if gb, ok := r.target.(engine.GhostBuffer); ok {
		return gb.PendingGhosts()
	}
	return 0
}

// TakeGhosts drains the referent's buffer.
func (r *NodeReference) TakeGhosts() []*ray.Bundle {
	if gb, ok := r.target.(engine.GhostBuffer); ok {
		return gb.TakeGhosts()
	}
	return nil
}

// Reset resets only the reference's own bookkeeping; the referent resets
// itself as a graph member.
func (r *NodeReference) Reset() {
	r.NodeAttr.Reset()
}

// Report names the referent.
func (r *NodeReference) Report() schemas.NodeReport {
	return r.NodeAttr.Report()
}
