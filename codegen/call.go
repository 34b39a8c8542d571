package codegen

import (
	"fmt"
	"strings"

	"github.com/scc-lang/scvm/ast"
)

// builtinMnemonic lowers spec.md §6's built-in calls that don't map to a
// handful of existing ALU ops straight to one ISA pseudo-mnemonic, named
// by joining the call name's underscore-separated words (gpio_set ->
// gpioset). uart_read/uart_write instead use the ISA's own inu/outu
// primitives named in the glossary.
var builtinMnemonic = map[string]string{
	"gpio_set":           "gpioset",
	"gpio_read":          "gpioread",
	"gpio_write":         "gpiowrite",
	"uart_set_baud":      "uartbaud",
	"timer_set_mode":     "timersetmode",
	"timer_set_period":   "timersetperiod",
	"timer_start":        "timerstart",
	"timer_stop":         "timerstop",
	"timer_reset":        "timerreset",
	"timer_get_value":    "timergetvalue",
	"timer_expired":      "timerexpired",
	"delay_ms":           "delayms",
	"delay_us":           "delayus",
	"delay_cycles":       "delaycycles",
	"enable_interrupts":  "enableints",
	"disable_interrupts": "disableints",
}

var builtinReturnsValue = map[string]bool{
	"gpio_read": true, "uart_read": true,
	"timer_get_value": true, "timer_expired": true,
}

func (g *Generator) emitCall(call *ast.FunctionCall) (int, error) {
	switch call.Name {
	case "uart_read":
		return g.emitUARTRead(call)
	case "uart_write":
		return g.emitUARTWrite(call)
	case "set_bit", "clear_bit", "toggle_bit", "get_bit":
		return g.emitBitOp(call)
	}
	if mnem, ok := builtinMnemonic[call.Name]; ok {
		return g.emitBuiltinMnemonic(call, mnem)
	}
	return g.emitUserCall(call)
}

func (g *Generator) emitArgRegs(call *ast.FunctionCall) ([]int, error) {
	regs := make([]int, len(call.Args))
	for i, a := range call.Args {
		r, err := g.emitExpr(a)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	return regs, nil
}

func (g *Generator) emitUARTRead(call *ast.FunctionCall) (int, error) {
	t, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  inu r:%d\n", t)
	return t, nil
}

func (g *Generator) emitUARTWrite(call *ast.FunctionCall) (int, error) {
	regs, err := g.emitArgRegs(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  outu r:%d\n", regs[0])
	g.freeTemp(regs[0])
	t, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, #0\n", t)
	return t, nil
}

func (g *Generator) emitBitOp(call *ast.FunctionCall) (int, error) {
	regs, err := g.emitArgRegs(call)
	if err != nil {
		return 0, err
	}
	value, bit := regs[0], regs[1]
	// Mask the bit index into a fresh temp: bit may be a variable's own
	// persistent register.
	masked, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  and r:%d, r:%d, #31\n", masked, bit)
	g.freeTemp(bit)
	bit = masked
	mask, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, #1\n", mask)
	fmt.Fprintf(&g.out, "  shl r:%d, r:%d, r:%d\n", mask, mask, bit)

	t, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	switch call.Name {
	case "set_bit":
		fmt.Fprintf(&g.out, "  or r:%d, r:%d, r:%d\n", t, value, mask)
	case "clear_bit":
		fmt.Fprintf(&g.out, "  xor r:%d, r:%d, #-1\n", mask, mask)
		fmt.Fprintf(&g.out, "  and r:%d, r:%d, r:%d\n", t, value, mask)
	case "toggle_bit":
		fmt.Fprintf(&g.out, "  xor r:%d, r:%d, r:%d\n", t, value, mask)
	case "get_bit":
		fmt.Fprintf(&g.out, "  shr r:%d, r:%d, r:%d\n", t, value, bit)
		fmt.Fprintf(&g.out, "  and r:%d, r:%d, #1\n", t, t)
	}
	g.freeTemp(value)
	g.freeTemp(bit)
	g.freeTemp(mask)
	return t, nil
}

func (g *Generator) emitBuiltinMnemonic(call *ast.FunctionCall, mnem string) (int, error) {
	regs, err := g.emitArgRegs(call)
	if err != nil {
		return 0, err
	}
	operands := make([]string, len(regs))
	for i, r := range regs {
		operands[i] = fmt.Sprintf("r:%d", r)
	}

	var resultReg int
	if builtinReturnsValue[call.Name] {
		resultReg, err = g.allocTemp(call)
		if err != nil {
			return 0, err
		}
		operands = append([]string{fmt.Sprintf("r:%d", resultReg)}, operands...)
	}

	if len(operands) == 0 {
		fmt.Fprintf(&g.out, "  %s\n", mnem)
	} else {
		fmt.Fprintf(&g.out, "  %s %s\n", mnem, strings.Join(operands, ", "))
	}
	for _, r := range regs {
		g.freeTemp(r)
	}
	if builtinReturnsValue[call.Name] {
		return resultReg, nil
	}
	t, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, #0\n", t)
	return t, nil
}

// emitUserCall lowers a call to a source-defined function: push the
// arguments in reverse order, push a synthesized return-address label,
// jump, emit the return label, then discard the argument+return-address
// slots (spec.md §4.5).
func (g *Generator) emitUserCall(call *ast.FunctionCall) (int, error) {
	regs, err := g.emitArgRegs(call)
	if err != nil {
		return 0, err
	}
	for i := len(regs) - 1; i >= 0; i-- {
		g.pushWord(regs[i])
	}
	for _, r := range regs {
		g.freeTemp(r)
	}

	retLabel := g.newLabel("ret")
	fmt.Fprintf(&g.out, "  push %s\n", retLabel)
	g.cur.frameDepth++
	fmt.Fprintf(&g.out, "  mov r:%d, %s\n", regIP, call.Name)
	fmt.Fprintf(&g.out, "%s:\n", retLabel)

	g.discardWords(len(regs) + 1)

	t, err := g.allocTemp(call)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&g.out, "  mov r:%d, r:%d\n", t, regReturn)
	return t, nil
}
