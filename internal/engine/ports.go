// File: internal/engine/ports.go

package engine

import (
	"github.com/xkilldash9x/beamline-cli/internal/optics"
)

// PortDirection distinguishes the two port roles of a node.
type PortDirection int

const (
	// PortInput receives light.
	PortInput PortDirection = iota
	// PortOutput emits light.
	PortOutput
)

func (d PortDirection) String() string {
	if d == PortInput {
		return "input"
	}
	return "output"
}

// Ports holds a node's named ports. Input and output names are each unique
// within their direction. Each output port owns the optical surface light
// leaves through, which carries the hit map for fluence analysis. When
// inverted, the two directions swap roles without restructuring.
type Ports struct {
	inputs   []string
	outputs  []string
	surfaces map[string]*optics.Surface
	inverted bool
}

// NewPorts creates an empty port set.
func NewPorts() *Ports {
	return &Ports{surfaces: make(map[string]*optics.Surface)}
}

// AddInput registers an input port.
func (p *Ports) AddInput(name string) error {
	if err := p.checkNew(name); err != nil {
		return err
	}
	p.inputs = append(p.inputs, name)
	return nil
}

// AddOutput registers an output port and the surface attached to it.
func (p *Ports) AddOutput(name string, surf *optics.Surface) error {
	if err := p.checkNew(name); err != nil {
		return err
	}
	p.outputs = append(p.outputs, name)
	if surf != nil {
		p.surfaces[name] = surf
	}
	return nil
}

func (p *Ports) checkNew(name string) error {
	if name == "" {
		return NewError(ErrCodeInvalidParameters, "port name must not be empty")
	}
	for _, n := range p.inputs {
		if n == name {
			return NewError(ErrCodeInvalidParameters, "port %q already defined", name)
		}
	}
	for _, n := range p.outputs {
		if n == name {
			return NewError(ErrCodeInvalidParameters, "port %q already defined", name)
		}
	}
	return nil
}

// Inputs lists the ports currently acting as inputs, in definition order.
func (p *Ports) Inputs() []string {
	if p.inverted {
		return p.outputs
	}
	return p.inputs
}

// Outputs lists the ports currently acting as outputs, in definition order.
func (p *Ports) Outputs() []string {
	if p.inverted {
		return p.inputs
	}
	return p.outputs
}

// HasInput reports whether name currently acts as an input port.
func (p *Ports) HasInput(name string) bool { return contains(p.Inputs(), name) }

// HasOutput reports whether name currently acts as an output port.
func (p *Ports) HasOutput(name string) bool { return contains(p.Outputs(), name) }

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Surface returns the optical surface attached to a port, or nil. The
// lookup ignores inversion since the physical surface does not move.
func (p *Ports) Surface(name string) *optics.Surface {
	return p.surfaces[name]
}

// Surfaces returns all attached surfaces.
func (p *Ports) Surfaces() []*optics.Surface {
	out := make([]*optics.Surface, 0, len(p.surfaces))
	for _, name := range p.outputs {
		if s := p.surfaces[name]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// SetInverted flips the role view of the two directions.
func (p *Ports) SetInverted(inverted bool) { p.inverted = inverted }

// Inverted reports the current role view.
func (p *Ports) Inverted() bool { return p.inverted }

// ResetHitMaps clears the hit maps of all attached surfaces.
func (p *Ports) ResetHitMaps() {
	for _, s := range p.surfaces {
		s.Reset()
	}
}
