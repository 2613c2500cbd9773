// File: internal/nodes/group.go

package nodes

import (
	"github.com/google/uuid"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// Group nests a sub-graph behind the Node interface. Its ports are the
// sub-graph's externally mapped ports, so a group connects into a parent
// scenery like any other element. Inverting a group composes with the
// sub-graph's own direction: the sub-graph is temporarily flipped for the
// duration of the analysis when the two disagree.
type Group struct {
	*engine.NodeAttr
	graph *engine.Graph
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{
		NodeAttr: engine.NewNodeAttr(name, TypeGroup),
		graph:    engine.NewGraph(),
	}
}

// Graph exposes the nested sub-graph for construction.
func (g *Group) Graph() *engine.Graph { return g.graph }

// AddNode inserts a node into the sub-graph.
func (g *Group) AddNode(n engine.Node) error { return g.graph.AddNode(n) }

// Connect links two sub-graph ports.
func (g *Group) Connect(src uuid.UUID, srcPort string, tgt uuid.UUID, tgtPort string, distance quantity.Length) error {
	return g.graph.Connect(src, srcPort, tgt, tgtPort, distance)
}

// MapInputPort exposes a sub-graph input port as a group port.
func (g *Group) MapInputPort(node uuid.UUID, port, externalName string) error {
	if err := g.graph.MapInputPort(node, port, externalName); err != nil {
		return err
	}
	return g.Ports().AddInput(externalName)
}

// MapOutputPort exposes a sub-graph output port as a group port. The inner
// port's surface is surfaced on the group port as well.
func (g *Group) MapOutputPort(node uuid.UUID, port, externalName string) error {
	if err := g.graph.MapOutputPort(node, port, externalName); err != nil {
		return err
	}
	inner, err := g.graph.Node(node)
	if err != nil {
		return err
	}
	return g.Ports().AddOutput(externalName, inner.Ports().Surface(port))
}

// Analyze propagates the inputs through the sub-graph. Group inversion and
// sub-graph inversion compose: the sub-graph is flipped for the call when
// its direction disagrees with the group's.
func (g *Group) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	if g.Inverted() != g.graph.Inverted() {
		if err := g.graph.InvertGraph(); err != nil {
			return nil, err
		}
		defer func() { _ = g.graph.InvertGraph() }()
	}
	return g.graph.Propagate(ctx, inputs)
}

// PendingGhosts counts the ghost bundles buffered inside the sub-graph, so
// a group holding ghosts is not skipped as stale.
func (g *Group) PendingGhosts() int { return g.graph.PendingGhostCount() }

// TakeGhosts returns nil: nested nodes emit their own buffers when the
// sub-graph propagates.
func (g *Group) TakeGhosts() []*ray.Bundle { return nil }

// Reset resets the sub-graph.
func (g *Group) Reset() {
	g.graph.ResetData()
	g.NodeAttr.Reset()
}
