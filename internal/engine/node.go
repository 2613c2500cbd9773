// File: internal/engine/node.go

package engine

import (
	"github.com/google/uuid"

	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// Node is an element of the optical scene graph. Analyze transforms the
// light arriving on the node's input ports into the light leaving on its
// output ports. A missing required input yields an empty result, not an
// error; a wrong LightData variant is a typed analysis error.
type Node interface {
	ID() uuid.UUID
	Name() string
	Type() string
	Attr() *NodeAttr
	Ports() *Ports
	Inverted() bool
	SetInverted(inverted bool) error
	Analyze(ctx *AnalysisContext, inputs LightResult) (LightResult, error)
	Reset()
	Report() schemas.NodeReport
}

// GhostBuffer is implemented by nodes that accumulate parasitically
// reflected bundles during a ghost-focus pass and re-emit them on the next
// (inverted) pass.
type GhostBuffer interface {
	// PendingGhosts reports how many reflected bundles await re-emission.
	PendingGhosts() int
	// TakeGhosts removes and returns the pending bundles.
	TakeGhosts() []*ray.Bundle
}

// GhostSink is implemented by nodes that collect the bundles a ghost-focus
// run delivers to them, one entry per pass.
type GhostSink interface {
	CollectedGhosts() []*ray.Bundle
}

// NodeAttr carries the bookkeeping every node shares: identity, name, type,
// ports, properties, alignment pose and inversion state. Concrete node
// kinds embed it.
type NodeAttr struct {
	id       uuid.UUID
	name     string
	nodeType string
	ports    *Ports
	props    *Properties
	pose     quantity.Pose
	inverted bool
}

// NewNodeAttr creates node attributes with a fresh identity and empty ports
// and properties.
func NewNodeAttr(name, nodeType string) *NodeAttr {
	return &NodeAttr{
		id:       uuid.New(),
		name:     name,
		nodeType: nodeType,
		ports:    NewPorts(),
		props:    NewProperties(),
		pose:     quantity.IdentityPose(),
	}
}

// ID returns the node's unique identity.
func (a *NodeAttr) ID() uuid.UUID { return a.id }

// Name returns the user-facing node name.
func (a *NodeAttr) Name() string { return a.name }

// SetName renames the node.
func (a *NodeAttr) SetName(name string) { a.name = name }

// Type returns the node kind, e.g. "lens".
func (a *NodeAttr) Type() string { return a.nodeType }

// Attr returns the attributes themselves; embedding makes this the Node
// accessor.
func (a *NodeAttr) Attr() *NodeAttr { return a }

// Ports returns the node's port set.
func (a *NodeAttr) Ports() *Ports { return a.ports }

// Properties returns the node's property bag.
func (a *NodeAttr) Properties() *Properties { return a.props }

// Pose returns the node's alignment pose in world space.
func (a *NodeAttr) Pose() quantity.Pose { return a.pose }

// SetPose aligns the node in world space and re-poses its surfaces.
func (a *NodeAttr) SetPose(p quantity.Pose) {
	a.pose = p
	for _, s := range a.ports.Surfaces() {
		s.SetPose(p)
	}
}

// Inverted reports whether the node currently works against its definition
// direction.
func (a *NodeAttr) Inverted() bool { return a.inverted }

// SetInverted flips the node's working direction. The base implementation
// accepts inversion; kinds that cannot run backwards override this with a
// typed error.
func (a *NodeAttr) SetInverted(inverted bool) error {
	a.inverted = inverted
	a.ports.SetInverted(inverted)
	return nil
}

// Reset clears transient analysis state. The base implementation clears the
// hit maps of all port surfaces.
func (a *NodeAttr) Reset() {
	a.ports.ResetHitMaps()
}

// Report renders the shared node bookkeeping.
func (a *NodeAttr) Report() schemas.NodeReport {
	return schemas.NodeReport{
		ID:         a.id.String(),
		Name:       a.name,
		Type:       a.nodeType,
		Inverted:   a.inverted,
		Properties: a.props.Export(),
	}
}

// InPort returns the effective primary input port name for a two-port node,
// accounting for inversion.
func (a *NodeAttr) InPort() string {
	ins := a.ports.Inputs()
	if len(ins) == 0 {
		return ""
	}
	return ins[0]
}

// OutPort returns the effective primary output port name for a two-port
// node, accounting for inversion.
func (a *NodeAttr) OutPort() string {
	outs := a.ports.Outputs()
	if len(outs) == 0 {
		return ""
	}
	return outs[0]
}
