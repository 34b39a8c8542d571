package interp

import "github.com/scc-lang/scvm/ast"

// builtinFunc implements one name from spec.md §6's call surface table.
// Argument count has already been evaluated by the caller (evalCall);
// each builtin except biNoop checks its own arity since these calls
// bypass the user-function parameter-count check. The no-op built-ins
// (delay_*, enable/disable_interrupts) accept any argument count.
type builtinFunc func(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error)

var builtins = map[string]builtinFunc{
	"gpio_set":   biGPIOSet,
	"gpio_read":  biGPIORead,
	"gpio_write": biGPIOWrite,

	"uart_set_baud": biUARTSetBaud,
	"uart_read":     biUARTRead,
	"uart_write":    biUARTWrite,

	"timer_set_mode":   biTimerSetMode,
	"timer_set_period": biTimerSetPeriod,
	"timer_start":      biTimerStart,
	"timer_stop":       biTimerStop,
	"timer_reset":      biTimerReset,
	"timer_get_value":  biTimerGetValue,
	"timer_expired":    biTimerExpired,

	"delay_ms":     biNoop,
	"delay_us":     biNoop,
	"delay_cycles": biNoop,

	"enable_interrupts":  biNoop,
	"disable_interrupts": biNoop,

	"set_bit":    biSetBit,
	"clear_bit":  biClearBit,
	"toggle_bit": biToggleBit,
	"get_bit":    biGetBit,
}

func arity(call *ast.FunctionCall, args []Value, n int) error {
	if len(args) != n {
		return errf(call.Position(), "%s expects %d arguments, got %d", call.Name, n, len(args))
	}
	return nil
}

func biGPIOSet(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 3); err != nil {
		return Value{}, err
	}
	pin, ok := rt.Peripherals.pin(args[0].Bits)
	if !ok {
		return Value{}, errf(call.Position(), "gpio_set: pin %d out of range", args[0].Bits)
	}
	pin.Configured = true
	pin.Dir = args[1].Bits
	pin.Mode = args[2].Bits
	return uintValue(0), nil
}

func biGPIORead(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 1); err != nil {
		return Value{}, err
	}
	pin, ok := rt.Peripherals.pin(args[0].Bits)
	if !ok || !pin.Configured {
		return Value{}, errf(call.Position(), "gpio_read: pin %d not configured", args[0].Bits)
	}
	return uintValue(pin.Value), nil
}

func biGPIOWrite(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 2); err != nil {
		return Value{}, err
	}
	pin, ok := rt.Peripherals.pin(args[0].Bits)
	if !ok || !pin.Configured {
		return Value{}, errf(call.Position(), "gpio_write: pin %d not configured", args[0].Bits)
	}
	pin.Value = args[1].Bits & 1
	return uintValue(0), nil
}

func biUARTSetBaud(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 1); err != nil {
		return Value{}, err
	}
	rt.Peripherals.UART.Baud = args[0].Bits
	return uintValue(0), nil
}

// biUARTRead returns the next byte from the receive queue, or 0 if
// empty: an expected operation state, not an integrity error (see the
// philosophy comment in peripherals.go).
func biUARTRead(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 0); err != nil {
		return Value{}, err
	}
	q := rt.Peripherals.UART.RxQueue
	if len(q) == 0 {
		return uintValue(0), nil
	}
	b := q[0]
	rt.Peripherals.UART.RxQueue = q[1:]
	return uintValue(uint32(b)), nil
}

// biUARTWrite writes one byte to the interpreter's configured stdout.
// UARTState keeps no record of transmitted bytes.
func biUARTWrite(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 1); err != nil {
		return Value{}, err
	}
	b := byte(args[0].Bits)
	_, err := rt.Stdout.Write([]byte{b})
	if err != nil {
		return Value{}, errf(call.Position(), "uart_write: %v", err)
	}
	return uintValue(0), nil
}

// Built-in timer operations act on Timers[0]. spec.md §6 gives each
// timer_* call an arity of 0-1 (no timer-index operand), so the three
// simulated timers sized by [peripherals].timer_count in the config
// file are addressable only through future source-level extension;
// today's call surface exposes a single active timer. See DESIGN.md.
func activeTimer(rt *Runtime, call *ast.FunctionCall) (*Timer, error) {
	t, ok := rt.Peripherals.timer(0)
	if !ok {
		return nil, errf(call.Position(), "%s: no timer configured", call.Name)
	}
	return t, nil
}

func biTimerSetMode(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 1); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	t.Mode = args[0].Bits
	return uintValue(0), nil
}

func biTimerSetPeriod(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 1); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	t.Period = args[0].Bits
	return uintValue(0), nil
}

func biTimerStart(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 0); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	t.Running = true
	return uintValue(0), nil
}

func biTimerStop(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 0); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	t.Running = false
	return uintValue(0), nil
}

func biTimerReset(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 0); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	t.Value = 0
	return uintValue(0), nil
}

func biTimerGetValue(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 0); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	if t.Running {
		t.Value++
	}
	return uintValue(t.Value), nil
}

func biTimerExpired(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 0); err != nil {
		return Value{}, err
	}
	t, err := activeTimer(rt, call)
	if err != nil {
		return Value{}, err
	}
	if t.Period > 0 && t.Value >= t.Period {
		return uintValue(1), nil
	}
	return uintValue(0), nil
}

func biNoop(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	return uintValue(0), nil
}

func biSetBit(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 2); err != nil {
		return Value{}, err
	}
	bit := args[1].Bits & 0x1F
	return uintValue(args[0].Bits | (1 << bit)), nil
}

func biClearBit(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 2); err != nil {
		return Value{}, err
	}
	bit := args[1].Bits & 0x1F
	return uintValue(args[0].Bits &^ (1 << bit)), nil
}

func biToggleBit(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 2); err != nil {
		return Value{}, err
	}
	bit := args[1].Bits & 0x1F
	return uintValue(args[0].Bits ^ (1 << bit)), nil
}

func biGetBit(rt *Runtime, call *ast.FunctionCall, args []Value) (Value, error) {
	if err := arity(call, args, 2); err != nil {
		return Value{}, err
	}
	bit := args[1].Bits & 0x1F
	return uintValue((args[0].Bits >> bit) & 1), nil
}
