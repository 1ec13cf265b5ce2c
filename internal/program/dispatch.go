package program

import (
	"fmt"

	"github.com/roach88/lowering/internal/codegen"
)

// Dispatch is one unit of work: an entry point and the compute ops it
// runs, which are distributed together.
type Dispatch struct {
	Name       string
	EntryPoint *EntryPoint
	Ops        []Operation
}

// Op returns the op with the given name.
func (d *Dispatch) Op(name string) (Operation, bool) {
	for _, op := range d.Ops {
		if op.Name() == name {
			return op, true
		}
	}
	return nil, false
}

// ComputeOps returns the ops as codegen operations, in dispatch order.
func (d *Dispatch) ComputeOps() []codegen.Operation {
	ops := make([]codegen.Operation, len(d.Ops))
	for i, op := range d.Ops {
		ops[i] = op
	}
	return ops
}

// Module is an ordered set of dispatches with unique names.
type Module struct {
	Dispatches []*Dispatch
}

// Dispatch returns the dispatch with the given name.
func (m *Module) Dispatch(name string) (*Dispatch, bool) {
	for _, d := range m.Dispatches {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Add appends d, rejecting duplicate names.
func (m *Module) Add(d *Dispatch) error {
	if _, dup := m.Dispatch(d.Name); dup {
		return fmt.Errorf("duplicate dispatch %q", d.Name)
	}
	m.Dispatches = append(m.Dispatches, d)
	return nil
}
