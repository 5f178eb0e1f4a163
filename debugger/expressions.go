package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a64toolkit/a64emu/vm"
)

// ExpressionEvaluator is the debugger's simple command-line evaluator:
// a substring search for the lowest-precedence operator rather than a
// real parse. It's adequate for the flat one-or-two-operand
// expressions "print"/"set"/watch conditions actually use; anything
// with nested parens or mixed precedence should go through
// ExprParser/NewExprLexer instead.
type ExpressionEvaluator struct {
	valueHistory []uint32
	valueNumber  int
}

func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// EvaluateExpression evaluates expr and records the result in the
// value history under the next $N slot.
func (e *ExpressionEvaluator) EvaluateExpression(expr string, machine *vm.VM, symbols map[string]uint32) (uint32, error) {
	result, err := e.evaluate(expr, machine, symbols)
	if err != nil {
		return 0, err
	}

	e.valueHistory = append(e.valueHistory, result)
	e.valueNumber = len(e.valueHistory)

	return result, nil
}

// Evaluate evaluates expr as a boolean condition (nonzero is true),
// used for breakpoint conditions. It does not touch the value history.
func (e *ExpressionEvaluator) Evaluate(expr string, machine *vm.VM, symbols map[string]uint32) (bool, error) {
	result, err := e.evaluate(expr, machine, symbols)
	if err != nil {
		return false, err
	}
	return result != 0, nil
}

func (e *ExpressionEvaluator) GetValueNumber() int {
	return e.valueNumber
}

// GetValue returns the $N value from history (1-indexed, matching the
// $1, $2, ... the user sees printed).
func (e *ExpressionEvaluator) GetValue(number int) (uint32, error) {
	if number < 1 || number > len(e.valueHistory) {
		return 0, fmt.Errorf("value $%d not in history", number)
	}
	return e.valueHistory[number-1], nil
}

// evaluate scans for the lowest-precedence operator surrounded by
// whitespace and recurses on each side, falling back to a single atom
// when no operator is found. The whitespace requirement keeps it from
// splitting inside a literal like "0xFF".
func (e *ExpressionEvaluator) evaluate(expr string, machine *vm.VM, symbols map[string]uint32) (uint32, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("empty expression")
	}

	if val, err := e.trySimpleEval(expr, machine, symbols); err == nil {
		return val, nil
	}

	for _, op := range []string{"|", "^", "&", "<<", ">>", "+", "-", "*", "/"} {
		for _, pattern := range []string{" " + op + " ", " " + op, op + " "} {
			idx := strings.Index(expr, pattern)
			if idx < 0 {
				continue
			}

			opPos := idx
			if pattern[0] == ' ' {
				opPos++
			}

			left := strings.TrimSpace(expr[:opPos])
			right := strings.TrimSpace(expr[opPos+len(op):])
			if left == "" || right == "" {
				continue
			}

			leftVal, err := e.evaluate(left, machine, symbols)
			if err != nil {
				continue
			}
			rightVal, err := e.evaluate(right, machine, symbols)
			if err != nil {
				continue
			}

			return applyBinaryOp(leftVal, rightVal, op)
		}
	}

	return 0, fmt.Errorf("invalid expression: %s", expr)
}

// trySimpleEval handles a single atom: memory dereference, value
// history reference, register, symbol, or numeric literal.
func (e *ExpressionEvaluator) trySimpleEval(expr string, machine *vm.VM, symbols map[string]uint32) (uint32, error) {
	expr = strings.TrimSpace(expr)

	if strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]") {
		addr, err := e.evaluate(strings.TrimSpace(expr[1:len(expr)-1]), machine, symbols)
		if err != nil {
			return 0, err
		}
		return e.loadWord(machine, addr)
	}

	if strings.HasPrefix(expr, "*") {
		addr, err := e.evaluate(strings.TrimSpace(expr[1:]), machine, symbols)
		if err != nil {
			return 0, err
		}
		return e.loadWord(machine, addr)
	}

	if strings.HasPrefix(expr, "$") {
		num, err := strconv.Atoi(expr[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid value reference: %s", expr)
		}
		return e.GetValue(num)
	}

	if val, err := e.evalRegister(expr, machine); err == nil {
		return val, nil
	}

	if addr, exists := symbols[expr]; exists {
		return addr, nil
	}

	return parseNumericLiteral(expr)
}

func (e *ExpressionEvaluator) loadWord(machine *vm.VM, addr uint32) (uint32, error) {
	value, err := machine.Memory.Load32(addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read memory at 0x%08X: %w", addr, err)
	}
	return value, nil
}

// evalRegister resolves pc, the zero register, or an xN/wN reference.
func (e *ExpressionEvaluator) evalRegister(expr string, machine *vm.VM) (uint32, error) {
	expr = strings.ToLower(expr)
	switch {
	case expr == "pc":
		return uint32(machine.Regs.PC()), nil
	case isZeroRegister(expr):
		return 0, nil
	}

	n, is64, ok := lookupRegister(expr)
	if !ok {
		return 0, fmt.Errorf("not a register")
	}
	if is64 {
		return uint32(machine.Regs.Read64(uint8(n))), nil
	}
	return machine.Regs.Read32(uint8(n)), nil
}

// Reset clears the value history, used when the debugger restarts the
// program under test.
func (e *ExpressionEvaluator) Reset() {
	e.valueHistory = e.valueHistory[:0]
	e.valueNumber = 0
}
