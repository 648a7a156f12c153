package graph

import "fmt"

// Direction is the orientation of a Port relative to its owning Node.
type Direction int

const (
	// In ports receive values written by the Executor during propagation.
	In Direction = iota
	// Out ports are written by a node's own compute call.
	Out
	// InOut ports tunnel values across a Subgraph boundary.
	InOut
)

func (d Direction) String() string {
	switch d {
	case In:
		return "IN"
	case Out:
		return "OUT"
	case InOut:
		return "IN_OUT"
	default:
		return "UNKNOWN"
	}
}

// Function distinguishes data ports (values flowing along edges) from
// control ports (execution signals, including loop-back and branch
// selection). An edge's class is determined by its source port's
// function.
type Function int

const (
	// Data ports carry typed values.
	Data Function = iota
	// Control ports carry execution-signal activations.
	Control
)

func (f Function) String() string {
	switch f {
	case Data:
		return "DATA"
	case Control:
		return "CONTROL"
	default:
		return "UNKNOWN"
	}
}

// ValueType is the finite enumeration consumed by the validator on
// Port.SetValue. ANY matches anything; writing a
// non-conforming value is a soft diagnostic, never a hard failure.
type ValueType int

const (
	Any ValueType = iota
	Int
	Float
	String
	Bool
	Dict
	Array
	Object
	Vector
	Matrix
	Color
	Binary
)

func (t ValueType) String() string {
	switch t {
	case Any:
		return "ANY"
	case Int:
		return "INT"
	case Float:
		return "FLOAT"
	case String:
		return "STRING"
	case Bool:
		return "BOOL"
	case Dict:
		return "DICT"
	case Array:
		return "ARRAY"
	case Object:
		return "OBJECT"
	case Vector:
		return "VECTOR"
	case Matrix:
		return "MATRIX"
	case Color:
		return "COLOR"
	case Binary:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

// Port is a typed, directional connection point on a Node. It carries a
// current value, a dirty flag, a direction, and a function (data or
// control). Ports exist for the lifetime of their owning node and are
// mutated only by their owning node's compute (writing outputs) and by
// the Executor (writing inputs during propagation).
type Port struct {
	NodeID string
	Name   string
	Dir    Direction
	Fn     Function
	Type   ValueType

	Value any
	// Dirty is true iff the current value does not reflect an upstream
	// computation that completed during the current run.
	Dirty bool
}

// NewPort constructs a Port owned by nodeID. New ports start dirty:
// their value, if any, has not been produced by a computation in the
// current run.
func NewPort(nodeID, name string, dir Direction, fn Function, vt ValueType) *Port {
	return &Port{
		NodeID: nodeID,
		Name:   name,
		Dir:    dir,
		Fn:     fn,
		Type:   vt,
		Dirty:  true,
	}
}

// SetValue writes v into the port and marks it clean. It returns true
// when v does not conform to the port's declared ValueType, a soft
// TypeMismatch diagnostic: the value is still written, the caller
// decides whether to log it (Executor does, via its Logger).
func (p *Port) SetValue(v any) (mismatch bool) {
	p.Value = v
	p.Dirty = false
	return !valueConforms(p.Type, v)
}

// MarkDirty invalidates the port's current value, requiring a fresh
// upstream computation before it is considered satisfied again.
func (p *Port) MarkDirty() {
	p.Dirty = true
}

// HasValue reports whether the port has ever been written.
func (p *Port) HasValue() bool {
	return p.Value != nil
}

func valueConforms(vt ValueType, v any) bool {
	if vt == Any || v == nil {
		return true
	}
	switch vt {
	case Int:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case Float:
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case String:
		_, ok := v.(string)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Dict:
		_, ok := v.(map[string]any)
		return ok
	case Array:
		switch v.(type) {
		case []any:
			return true
		default:
			return false
		}
	case Object, Vector, Matrix, Color, Binary:
		// No further structural constraint beyond "not nil": these are
		// open-ended carrier types.
		return true
	default:
		return true
	}
}

// TypeMismatchDiagnostic describes a soft warning for a non-conforming
// port value. SetValue does not build one: it reports a mismatch only
// through its boolean result. It is never returned as an error; callers
// that want to surface it pass it to a Logger.
type TypeMismatchDiagnostic struct {
	NodeID   string
	Port     string
	Expected ValueType
	Got      any
}

func (d TypeMismatchDiagnostic) String() string {
	return fmt.Sprintf("type mismatch on %s.%s: expected %s, got %T", d.NodeID, d.Port, d.Expected, d.Got)
}
