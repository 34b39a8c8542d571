package interp

import "github.com/scc-lang/scvm/ast"

// evalCall dispatches a call to either a user-defined function or one
// of the built-in peripheral/bit operations in spec.md §6's call
// surface table.
func (rt *Runtime) evalCall(env *Environment, call *ast.FunctionCall) (Value, error) {
	args := make([]Value, len(call.Args))
	for i, a := range call.Args {
		v, err := rt.evalExpr(env, a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	if fn, ok := rt.Functions[call.Name]; ok {
		if len(args) != len(fn.Params) {
			return Value{}, errf(call.Position(), "function %q expects %d arguments, got %d", call.Name, len(fn.Params), len(args))
		}
		return rt.callFunction(fn, args)
	}

	if builtin, ok := builtins[call.Name]; ok {
		rt.Stats.countPeripheral()
		return builtin(rt, call, args)
	}

	return Value{}, errf(call.Position(), "undefined function %q", call.Name)
}

// callFunction runs fn's body in a fresh scope whose lexical parent is
// the global environment (spec.md §4.4: "a new child scope of the
// caller's top environment"), enforcing the call-depth guard new to
// this Go interpreter (see runtime.go).
func (rt *Runtime) callFunction(fn *ast.FunctionDef, args []Value) (Value, error) {
	rt.callDepth++
	defer func() { rt.callDepth-- }()
	if rt.callDepth > rt.MaxCallDepth {
		return Value{}, errf(fn.Position(), "call depth exceeded %d in function %q", rt.MaxCallDepth, fn.Name)
	}
	rt.Stats.countCall()

	callEnv := rt.Globals.child()
	for i, param := range fn.Params {
		callEnv.declareScalar(param, ast.Uint32, false, 0, args[i].Bits)
	}

	c, err := rt.execBlock(callEnv, fn.Body)
	if err != nil {
		return Value{}, err
	}
	if c.kind == ctrlReturn {
		return c.value, nil
	}
	return uintValue(0), nil
}
