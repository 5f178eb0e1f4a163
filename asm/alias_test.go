package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAlias(t *testing.T) {
	tests := []struct {
		name      string
		mnemonic  string
		operands  []string
		wantMn    string
		wantOps   []string
	}{
		{"neg", "neg", []string{"x0", "x1"}, "sub", []string{"x0", "rzr", "x1"}},
		{"negs", "negs", []string{"x0", "x1"}, "subs", []string{"x0", "rzr", "x1"}},
		{"cmp", "cmp", []string{"x0", "x1"}, "subs", []string{"rzr", "x0", "x1"}},
		{"cmn", "cmn", []string{"x0", "x1"}, "adds", []string{"rzr", "x0", "x1"}},
		{"tst", "tst", []string{"x0", "x1"}, "ands", []string{"rzr", "x0", "x1"}},
		{"mvn", "mvn", []string{"x0", "x1"}, "orn", []string{"x0", "rzr", "x1"}},
		{"mov", "mov", []string{"x0", "x1"}, "orr", []string{"x0", "rzr", "x1"}},
		{"mul", "mul", []string{"x0", "x1", "x2"}, "madd", []string{"x0", "x1", "x2", "rzr"}},
		{"mneg", "mneg", []string{"x0", "x1", "x2"}, "msub", []string{"x0", "x1", "x2", "rzr"}},
		{"unknown passes through", "add", []string{"x0", "x1", "x2"}, "add", []string{"x0", "x1", "x2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMn, gotOps := normalizeAlias(tt.mnemonic, tt.operands)
			assert.Equal(t, tt.wantMn, gotMn)
			assert.Equal(t, tt.wantOps, gotOps)
		})
	}
}

// The shift-suffix operand (e.g. "neg x0, x1, lsl #3") must shift right
// along with the rest — insertAt splices rather than appends, so a
// trailing shift-type/amount pair stays trailing.
func TestNormalizeAlias_PreservesTrailingShiftOperands(t *testing.T) {
	mn, ops := normalizeAlias("neg", []string{"x0", "x1", "lsl", "#3"})
	assert.Equal(t, "sub", mn)
	assert.Equal(t, []string{"x0", "rzr", "x1", "lsl", "#3"}, ops)
}
