// File: internal/engine/graph.go

package engine

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// Edge links an output port of one node to an input port of another. The
// distance is the geometric gap light crosses between the two ports; data
// is the light in transit during an analysis pass.
type Edge struct {
	srcNode  uuid.UUID
	srcPort  string
	tgtNode  uuid.UUID
	tgtPort  string
	distance quantity.Length
	data     *LightData
}

// Src returns the source node id and port in definition direction.
func (e *Edge) Src() (uuid.UUID, string) { return e.srcNode, e.srcPort }

// Tgt returns the target node id and port in definition direction.
func (e *Edge) Tgt() (uuid.UUID, string) { return e.tgtNode, e.tgtPort }

// Distance returns the gap between the two ports.
func (e *Edge) Distance() quantity.Length { return e.distance }

// PortRef names one port of one node, used by external port maps.
type PortRef struct {
	Node uuid.UUID
	Port string
}

// Graph is a flat, insertion-ordered arena of nodes plus the edges between
// their ports. External port maps expose unconnected ports under stable
// names so a graph can be nested inside a group or fed by an analyzer.
type Graph struct {
	nodes     []Node
	index     map[uuid.UUID]int
	edges     []*Edge
	inputMap  map[string]PortRef
	outputMap map[string]PortRef
	inverted  bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index:     make(map[uuid.UUID]int),
		inputMap:  make(map[string]PortRef),
		outputMap: make(map[string]PortRef),
	}
}

// AddNode inserts a node into the arena.
func (g *Graph) AddNode(n Node) error {
	if n == nil {
		return NewError(ErrCodeInvalidParameters, "node must not be nil")
	}
	if _, ok := g.index[n.ID()]; ok {
		return NewError(ErrCodeDuplicateNode, "node %q (%s) already present", n.Name(), n.ID())
	}
	g.index[n.ID()] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return nil
}

// Node looks a node up by id.
func (g *Graph) Node(id uuid.UUID) (Node, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, NewError(ErrCodeNodeNotFound, "no node with id %s", id)
	}
	return g.nodes[i], nil
}

// NodeByName returns the first node with the given name.
func (g *Graph) NodeByName(name string) (Node, error) {
	for _, n := range g.nodes {
		if n.Name() == name {
			return n, nil
		}
	}
	return nil, NewError(ErrCodeNodeNotFound, "no node named %q", name)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Inverted reports whether the graph currently runs in reverse.
func (g *Graph) Inverted() bool { return g.inverted }

// Connect links srcPort of the src node to tgtPort of the tgt node across
// the given distance. Both ports must exist in the right direction, be
// unused by other edges, and not be externally mapped. A connection closing
// a cycle is rejected and rolled back.
func (g *Graph) Connect(src uuid.UUID, srcPort string, tgt uuid.UUID, tgtPort string, distance quantity.Length) error {
	srcNode, err := g.Node(src)
	if err != nil {
		return err
	}
	tgtNode, err := g.Node(tgt)
	if err != nil {
		return err
	}
	if src == tgt {
		return NewError(ErrCodeCycleDetected, "cannot connect node %q to itself", srcNode.Name())
	}
	if !srcNode.Ports().HasOutput(srcPort) {
		return NewError(ErrCodePortNotFound, "node %q has no output port %q", srcNode.Name(), srcPort)
	}
	if !tgtNode.Ports().HasInput(tgtPort) {
		return NewError(ErrCodePortNotFound, "node %q has no input port %q", tgtNode.Name(), tgtPort)
	}
	if err := quantity.ValidateDistance(distance); err != nil {
		return WrapError(ErrCodeInvalidParameters, err, "connection %q -> %q", srcNode.Name(), tgtNode.Name())
	}
	// External maps take precedence over occupancy: a mapped port is
	// reserved for the outside world even before any edge touches it.
	for name, ref := range g.outputMap {
		if ref.Node == src && ref.Port == srcPort {
			return NewError(ErrCodePortMapped, "output port %q of node %q is mapped externally as %q", srcPort, srcNode.Name(), name)
		}
	}
	for name, ref := range g.inputMap {
		if ref.Node == tgt && ref.Port == tgtPort {
			return NewError(ErrCodePortMapped, "input port %q of node %q is mapped externally as %q", tgtPort, tgtNode.Name(), name)
		}
	}
	for _, e := range g.edges {
		if e.srcNode == src && e.srcPort == srcPort {
			return NewError(ErrCodePortOccupied, "output port %q of node %q is already connected", srcPort, srcNode.Name())
		}
		if e.tgtNode == tgt && e.tgtPort == tgtPort {
			return NewError(ErrCodePortOccupied, "input port %q of node %q is already connected", tgtPort, tgtNode.Name())
		}
	}

	g.edges = append(g.edges, &Edge{
		srcNode: src, srcPort: srcPort,
		tgtNode: tgt, tgtPort: tgtPort,
		distance: distance,
	})
	if _, err := g.TopologicallySorted(); err != nil {
		g.edges = g.edges[:len(g.edges)-1]
		return NewError(ErrCodeCycleDetected, "connecting %q to %q closes a cycle", srcNode.Name(), tgtNode.Name())
	}
	return nil
}

// MapInputPort exposes an unconnected input port under an external name.
func (g *Graph) MapInputPort(node uuid.UUID, port, externalName string) error {
	n, err := g.Node(node)
	if err != nil {
		return err
	}
	if !n.Ports().HasInput(port) {
		return NewError(ErrCodePortNotFound, "node %q has no input port %q", n.Name(), port)
	}
	if externalName == "" {
		return NewError(ErrCodeInvalidParameters, "external port name must not be empty")
	}
	if _, ok := g.inputMap[externalName]; ok {
		return NewError(ErrCodePortMapped, "external input name %q already in use", externalName)
	}
	for _, e := range g.edges {
		if e.tgtNode == node && e.tgtPort == port {
			return NewError(ErrCodePortOccupied, "input port %q of node %q is internally connected", port, n.Name())
		}
	}
	g.inputMap[externalName] = PortRef{Node: node, Port: port}
	return nil
}

// MapOutputPort exposes an unconnected output port under an external name.
func (g *Graph) MapOutputPort(node uuid.UUID, port, externalName string) error {
	n, err := g.Node(node)
	if err != nil {
		return err
	}
	if !n.Ports().HasOutput(port) {
		return NewError(ErrCodePortNotFound, "node %q has no output port %q", n.Name(), port)
	}
	if externalName == "" {
		return NewError(ErrCodeInvalidParameters, "external port name must not be empty")
	}
	if _, ok := g.outputMap[externalName]; ok {
		return NewError(ErrCodePortMapped, "external output name %q already in use", externalName)
	}
	for _, e := range g.edges {
		if e.srcNode == node && e.srcPort == port {
			return NewError(ErrCodePortOccupied, "output port %q of node %q is internally connected", port, n.Name())
		}
	}
	g.outputMap[externalName] = PortRef{Node: node, Port: port}
	return nil
}

// InputPorts returns the external input port map for the current direction.
func (g *Graph) InputPorts() map[string]PortRef {
	if g.inverted {
		return g.outputMap
	}
	return g.inputMap
}

// OutputPorts returns the external output port map for the current
// direction.
func (g *Graph) OutputPorts() map[string]PortRef {
	if g.inverted {
		return g.inputMap
	}
	return g.outputMap
}

// effectiveEnds returns an edge's (src, srcPort, tgt, tgtPort) in the
// current traversal direction.
func (g *Graph) effectiveEnds(e *Edge) (uuid.UUID, string, uuid.UUID, string) {
	if g.inverted {
		return e.tgtNode, e.tgtPort, e.srcNode, e.srcPort
	}
	return e.srcNode, e.srcPort, e.tgtNode, e.tgtPort
}

// TopologicallySorted returns the nodes in dependency order for the current
// traversal direction, deterministic by insertion order. A cycle yields a
// typed error.
func (g *Graph) TopologicallySorted() ([]Node, error) {
	inDegree := make([]int, len(g.nodes))
	adjacency := make([][]int, len(g.nodes))
	for _, e := range g.edges {
		src, _, tgt, _ := g.effectiveEnds(e)
		si, ti := g.index[src], g.index[tgt]
		adjacency[si] = append(adjacency[si], ti)
		inDegree[ti]++
	}

	queue := make([]int, 0, len(g.nodes))
	for i := range g.nodes {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]Node, 0, len(g.nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, g.nodes[i])
		for _, j := range adjacency[i] {
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return nil, NewError(ErrCodeCycleDetected, "graph contains a cycle")
	}
	return order, nil
}

// InvertGraph flips the traversal direction of the graph and of every node.
// Applying it twice restores the original state. Nodes that cannot run
// backwards make the whole graph non-invertible.
func (g *Graph) InvertGraph() error {
	for i, n := range g.nodes {
		if err := n.SetInverted(!n.Inverted()); err != nil {
			for k := 0; k < i; k++ {
				// Best effort rollback; the base node never fails here.
				_ = g.nodes[k].SetInverted(!g.nodes[k].Inverted())
			}
			return WrapError(ErrCodeNotInvertible, err, "node %q", n.Name())
		}
	}
	g.inverted = !g.inverted
	return nil
}

// IsSingleTree reports whether all nodes hang together in one weakly
// connected component. Disconnected sub-sceneries are legal but usually a
// modelling mistake worth flagging.
func (g *Graph) IsSingleTree() bool {
	if len(g.nodes) <= 1 {
		return true
	}
	adjacency := make([][]int, len(g.nodes))
	for _, e := range g.edges {
		si, ti := g.index[e.srcNode], g.index[e.tgtNode]
		adjacency[si] = append(adjacency[si], ti)
		adjacency[ti] = append(adjacency[ti], si)
	}
	seen := make([]bool, len(g.nodes))
	stack := []int{0}
	seen[0] = true
	count := 1
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, j := range adjacency[i] {
			if !seen[j] {
				seen[j] = true
				count++
				stack = append(stack, j)
			}
		}
	}
	return count == len(g.nodes)
}

// Propagate runs one full pass over the graph: nodes are visited in
// topological order, inputs are gathered from incoming edges and the
// external input map, each node analyzes, and outputs are distributed to
// outgoing edges and to the external output map. Geometric light crosses
// the gaps between nodes via surface intersection against the poses
// alignment assigned. Nodes with input ports but no arriving light are
// skipped as stale. The returned result holds the light reaching externally
// mapped outputs.
func (g *Graph) Propagate(ctx *AnalysisContext, incoming LightResult) (LightResult, error) {
	order, err := g.TopologicallySorted()
	if err != nil {
		return nil, err
	}
	// Light from an earlier pass must not leak into this one.
	g.ClearEdgeData()

	result := make(LightResult)
	for _, node := range order {
		inputs := make(LightResult)
		for _, e := range g.edges {
			_, _, tgt, tgtPort := g.effectiveEnds(e)
			if tgt == node.ID() && e.data != nil {
				inputs[tgtPort] = *e.data
			}
		}
		for external, ref := range g.InputPorts() {
			if ref.Node != node.ID() {
				continue
			}
			if data, ok := incoming[external]; ok {
				inputs[ref.Port] = data
			}
		}

		if g.isStale(node, inputs) {
			ctx.Log.Warn("skipping stale node without incoming light",
				zap.String("node", node.Name()),
				zap.String("type", node.Type()))
			continue
		}

		outputs, err := node.Analyze(ctx, inputs)
		if err != nil {
			return nil, WrapError(ErrCodeAnalysisFailure, err, "node %q", node.Name())
		}

		for _, e := range g.edges {
			src, srcPort, _, _ := g.effectiveEnds(e)
			if src != node.ID() {
				continue
			}
			data, ok := outputs[srcPort]
			if !ok {
				e.data = nil
				continue
			}
			d := data
			e.data = &d
		}
		for external, ref := range g.OutputPorts() {
			if ref.Node != node.ID() {
				continue
			}
			if data, ok := outputs[ref.Port]; ok {
				result[external] = data
			}
		}
	}
	return result, nil
}

// isStale reports whether a node expecting input received none and has no
// buffered ghost bundles to emit.
func (g *Graph) isStale(node Node, inputs LightResult) bool {
	if len(inputs) > 0 {
		return false
	}
	if len(node.Ports().Inputs()) == 0 {
		return false
	}
	if gb, ok := node.(GhostBuffer); ok && gb.PendingGhosts() > 0 {
		return false
	}
	return true
}

// poseable is satisfied by every node via the embedded attributes; kinds
// with multiple surfaces override SetPose to place them all.
type poseable interface {
	SetPose(quantity.Pose)
}

// AlignAlongAxis lays the scenery out on a straight optical axis: each
// node's pose is the cumulative connection distance along +Z from its
// sources. Folded benches (mirrors steering the axis) need explicit poses
// instead. Light crosses the gaps by surface intersection, so edge
// distances take effect through the poses this assigns.
func (g *Graph) AlignAlongAxis() error {
	order, err := g.TopologicallySorted()
	if err != nil {
		return err
	}
	offset := make(map[uuid.UUID]float64, len(g.nodes))
	for _, node := range order {
		z := offset[node.ID()]
		if p, ok := node.(poseable); ok {
			p.SetPose(quantity.NewPose(r3.Vec{Z: z}, 0, 0, 0))
		}
		for _, e := range g.edges {
			src, _, tgt, _ := g.effectiveEnds(e)
			if src != node.ID() {
				continue
			}
			if d := z + e.distance.Meters(); d > offset[tgt] {
				offset[tgt] = d
			}
		}
	}
	return nil
}

// PendingGhostCount sums the buffered ghost bundles over all nodes,
// including nested groups.
func (g *Graph) PendingGhostCount() int {
	total := 0
	for _, n := range g.nodes {
		if gb, ok := n.(GhostBuffer); ok {
			total += gb.PendingGhosts()
		}
	}
	return total
}

// ClearEdgeData drops the light in transit on every edge. Ghost-focus
// analysis clears edges between passes so stale light cannot leak into the
// next pass.
func (g *Graph) ClearEdgeData() {
	for _, e := range g.edges {
		e.data = nil
	}
}

// ResetData returns the graph to its pre-analysis state: edge data is
// dropped and every node resets its transient state and hit maps.
func (g *Graph) ResetData() {
	g.ClearEdgeData()
	for _, n := range g.nodes {
		n.Reset()
	}
}
