package defn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/dflow/indexalg"
)

func TestParseConstantFolding(t *testing.T) {
	testCases := []struct {
		description string
		definition  string
		expect      *Node
	}{
		{"integer addition folds", "1 + 2", intNode(3)},
		{"mixed addition folds to float", "1 + 2.5", floatNode(3.5)},
		{"division always folds to float", "4 / 2", floatNode(2)},
		{"precedence: multiplication before addition", "1 + 2 * 3", intNode(7)},
		{"unary minus folds", "-3 + 5", intNode(2)},
		{"power is right associative and folds", "2 ** 3 ** 2", intNode(512)},
		{"parentheses override precedence", "(1 + 2) * 3", intNode(9)},
		{"less-than folds to boolean 1", "1 < 2", intNode(1)},
		{"greater-than folds to boolean 0", "1 > 2", intNode(0)},
		{"comparison binds looser than addition", "1 + 1 == 2", intNode(1)},
		{"not-equal folds", "3 != 3", intNode(0)},
		{"greater-or-equal folds", "3 >= 3", intNode(1)},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			n, err := Parse(tc.definition)
			assert.Nil(t, err)
			assert.Equal(t, tc.expect, n)
		})
	}
}

func TestParseExpressionShapes(t *testing.T) {
	n, err := Parse("convert(temp, 'degC')")
	assert.Nil(t, err)
	assert.Equal(t, KindCall, n.Kind)
	assert.Equal(t, "convert", n.Name)
	assert.Equal(t, 2, len(n.Args))
	assert.Equal(t, KindVar, n.Args[0].Kind)
	assert.Equal(t, "temp", n.Args[0].Name)
	assert.Equal(t, KindStr, n.Args[1].Kind)
	assert.Equal(t, "degC", n.Args[1].StrVal)

	n, err = Parse("temp - tref")
	assert.Nil(t, err)
	assert.Equal(t, KindOp, n.Kind)
	assert.Equal(t, "-", n.Name)
	assert.Equal(t, 2, len(n.Args))

	n, err = Parse("temp < tref")
	assert.Nil(t, err)
	assert.Equal(t, KindOp, n.Kind)
	assert.Equal(t, "<", n.Name)
	assert.Equal(t, 2, len(n.Args))
	assert.Equal(t, KindVar, n.Args[0].Kind)
	assert.Equal(t, KindVar, n.Args[1].Kind)
}

func TestParseErrors(t *testing.T) {
	testCases := []string{
		"1 +",
		"(1 + 2",
		"1 2",
		"foo(1, )",
		"'unterminated",
		"x[2",
		"x[2,3",
		"f(a=1, a=2)",
		"f(1=2)",
	}
	for _, defnStr := range testCases {
		t.Run(defnStr, func(t *testing.T) {
			_, err := Parse(defnStr)
			assert.NotNil(t, err)
		})
	}
}

func TestParseIndexedVariable(t *testing.T) {
	n, err := Parse("x[2]")
	assert.Nil(t, err)
	assert.Equal(t, KindVar, n.Kind)
	assert.Equal(t, "x", n.Name)
	assert.Equal(t, []indexalg.Selector{indexalg.At(2)}, n.Indices)

	n, err = Parse("x[-2]")
	assert.Nil(t, err)
	assert.Equal(t, []indexalg.Selector{indexalg.At(-2)}, n.Indices)

	n, err = Parse("xyz[2, -3, 4]")
	assert.Nil(t, err)
	assert.Equal(t, "xyz", n.Name)
	assert.Equal(t, []indexalg.Selector{indexalg.At(2), indexalg.At(-3), indexalg.At(4)}, n.Indices)

	n, err = Parse("x[2:-3:4]")
	assert.Nil(t, err)
	assert.Equal(t, []indexalg.Selector{indexalg.Range(2, -3, true, 4)}, n.Indices)

	n, err = Parse("x[:-3:4]")
	assert.Nil(t, err)
	assert.Equal(t, []indexalg.Selector{indexalg.Range(0, -3, true, 4)}, n.Indices)

	n, err = Parse("x[1::4]")
	assert.Nil(t, err)
	assert.Equal(t, []indexalg.Selector{indexalg.Range(1, 0, false, 4)}, n.Indices)

	n, err = Parse("x[1:4]")
	assert.Nil(t, err)
	assert.Equal(t, []indexalg.Selector{indexalg.Range(1, 4, true, 0)}, n.Indices)
}

func TestParseKeywordArguments(t *testing.T) {
	n, err := Parse("f(x=4)")
	assert.Nil(t, err)
	assert.Equal(t, KindCall, n.Kind)
	assert.Equal(t, 0, len(n.Args))
	assert.Equal(t, intNode(4), n.Kwargs["x"])

	n, err = Parse("f(1, a=4)")
	assert.Nil(t, err)
	assert.Equal(t, 1, len(n.Args))
	assert.Equal(t, intNode(1), n.Args[0])
	assert.Equal(t, intNode(4), n.Kwargs["a"])

	n, err = Parse("f(1, 2, a=4, b=-8)")
	assert.Nil(t, err)
	assert.Equal(t, 2, len(n.Args))
	assert.Equal(t, intNode(4), n.Kwargs["a"])
	assert.Equal(t, intNode(-8), n.Kwargs["b"])

	n, err = Parse("convert(temp, to_units='degC')")
	assert.Nil(t, err)
	assert.Equal(t, "convert", n.Name)
	assert.Equal(t, 1, len(n.Args))
	assert.Equal(t, KindVar, n.Args[0].Kind)
	assert.Equal(t, strNode("degC"), n.Kwargs["to_units"])
}

func TestParsePowerUsesDoubleStar(t *testing.T) {
	n, err := Parse("2 ** 3.5")
	assert.Nil(t, err)
	assert.Equal(t, KindFloat, n.Kind)
	assert.InDelta(t, math.Pow(2, 3.5), n.FloatVal, 1e-9)

	n, err = Parse("6 + -5.0/2 ** 3 + (2*2) ** 3")
	assert.Nil(t, err)
	assert.Equal(t, floatNode(69.375), n)
}
