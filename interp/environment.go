package interp

import "github.com/scc-lang/scvm/ast"

// binding describes how one name in a scope is stored: as a plain
// scalar, as a register alias, as a memory-backed scalar (address
// taken), or as an array (always memory-backed from declaration, since
// both address-of and indexing need a base address).
type bindingKind int

const (
	bindScalar bindingKind = iota
	bindRegister
	bindMemoryScalar
	bindArray
	bindPointer
)

type binding struct {
	kind   bindingKind
	typ    ast.Type
	scalar uint32 // bindScalar, bindPointer
	reg    int    // bindRegister
	addr   uint32 // bindMemoryScalar (address of the one cell), bindArray (base address)
	size   uint32 // bindArray only
}

// Environment is one lexical scope: function bodies, block bodies, and
// the global scope each get one. Lookups walk the parent chain; the
// root environment (no parent) holds globals and is the lexical parent
// of every function call, per spec.md §4.4 ("a new child scope of the
// caller's top environment").
type Environment struct {
	parent   *Environment
	names    map[string]*binding
	rt       *Runtime
}

func newEnvironment(parent *Environment, rt *Runtime) *Environment {
	return &Environment{parent: parent, names: make(map[string]*binding), rt: rt}
}

func (e *Environment) child() *Environment {
	return newEnvironment(e, e.rt)
}

// resolve walks the scope chain outward and returns the binding for
// name and the scope that owns it, or (nil, nil) if undefined.
func (e *Environment) resolve(name string) (*binding, *Environment) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b, s
		}
	}
	return nil, nil
}

// declareScalar introduces a new plain or register-aliased scalar in
// this scope, masking the initial value to 32 bits.
func (e *Environment) declareScalar(name string, typ ast.Type, isRegister bool, regNum int, initial uint32) {
	if isRegister {
		e.rt.Registers.Set(regNum, initial)
		e.names[name] = &binding{kind: bindRegister, typ: typ, reg: regNum}
		return
	}
	e.names[name] = &binding{kind: bindScalar, typ: typ, scalar: initial}
}

// declarePointer introduces a pointer variable, itself just a uint32
// address stored like a scalar.
func (e *Environment) declarePointer(name string, initial uint32) {
	e.names[name] = &binding{kind: bindPointer, typ: ast.Uint32, scalar: initial}
}

// declareArray allocates size memory cells up front and seeds them from
// init (shorter than size pads the rest with zero, matching
// SPEC_FULL.md §4.5's codegen behavior mirrored here for consistency).
func (e *Environment) declareArray(name string, typ ast.Type, size uint32, init []uint32) {
	base := e.rt.allocMemory(size)
	for i := uint32(0); i < size; i++ {
		var v uint32
		if i < uint32(len(init)) {
			v = init[i]
		}
		e.rt.memory[base+i] = v
	}
	e.names[name] = &binding{kind: bindArray, typ: typ, addr: base, size: size}
}

// readScalar returns the current value of a previously declared
// scalar/pointer/register variable, following memory promotion.
func (e *Environment) readScalar(name string) (Value, bool) {
	b, _ := e.resolve(name)
	if b == nil {
		return Value{}, false
	}
	switch b.kind {
	case bindRegister:
		return Value{Bits: e.rt.Registers.Get(b.reg), Type: b.typ}, true
	case bindMemoryScalar:
		return Value{Bits: e.rt.memory[b.addr], Type: b.typ}, true
	case bindScalar, bindPointer:
		return Value{Bits: b.scalar, Type: b.typ}, true
	default:
		return Value{}, false
	}
}

// writeScalar stores value (coerced to the variable's declared type) in
// a previously declared scalar/pointer/register variable.
func (e *Environment) writeScalar(name string, value uint32) bool {
	b, _ := e.resolve(name)
	if b == nil {
		return false
	}
	switch b.kind {
	case bindRegister:
		return e.rt.Registers.Set(b.reg, value)
	case bindMemoryScalar:
		e.rt.memory[b.addr] = value
		return true
	case bindScalar, bindPointer:
		b.scalar = value
		return true
	default:
		return false
	}
}

// addressOfScalar lazily promotes name to a memory cell (on first
// address-of) and returns its address, matching spec.md §3's "memory
// addresses are assigned lazily on first use of address-of".
func (e *Environment) addressOfScalar(name string) (uint32, bool) {
	b, _ := e.resolve(name)
	if b == nil {
		return 0, false
	}
	switch b.kind {
	case bindMemoryScalar:
		return b.addr, true
	case bindScalar, bindPointer:
		addr := e.rt.allocMemory(1)
		e.rt.memory[addr] = b.scalar
		b.kind = bindMemoryScalar
		b.addr = addr
		return addr, true
	case bindRegister:
		return 0, false // registers have no memory address
	default:
		return 0, false
	}
}

func (e *Environment) arrayInfo(name string) (base, size uint32, typ ast.Type, ok bool) {
	b, _ := e.resolve(name)
	if b == nil || b.kind != bindArray {
		return 0, 0, 0, false
	}
	return b.addr, b.size, b.typ, true
}
