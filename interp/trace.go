package interp

import "github.com/scc-lang/scvm/lexer"

// TraceEntry records one executed statement: its source position and a
// short kind label ("if", "while", "call", ...).
type TraceEntry struct {
	Pos  lexer.Position
	Kind string
}

// ExecutionTrace accumulates TraceEntry values across a run. It is nil
// by default (see runtime.go's WithTrace); enabling it mirrors the
// teacher's ExecutionTrace (vm/trace.go), scaled down to what a
// tree-walking interpreter can usefully record: one entry per
// statement instead of one per decoded machine instruction.
type ExecutionTrace struct {
	Entries []TraceEntry
}

func NewExecutionTrace() *ExecutionTrace { return &ExecutionTrace{} }

func (t *ExecutionTrace) record(pos lexer.Position, kind string) {
	if t == nil {
		return
	}
	t.Entries = append(t.Entries, TraceEntry{Pos: pos, Kind: kind})
}

// Statistics counts coarse execution events, the interpreter-scale
// analogue of the teacher's PerformanceStatistics (vm/statistics.go):
// function calls and loop iterations in place of instruction/cycle
// counts, and peripheral accesses in place of memory access counts.
type Statistics struct {
	FunctionCalls      uint64
	LoopIterations     uint64
	PeripheralAccesses uint64
}

func NewStatistics() *Statistics { return &Statistics{} }

func (s *Statistics) countCall() {
	if s != nil {
		s.FunctionCalls++
	}
}

func (s *Statistics) countIteration() {
	if s != nil {
		s.LoopIterations++
	}
}

func (s *Statistics) countPeripheral() {
	if s != nil {
		s.PeripheralAccesses++
	}
}
