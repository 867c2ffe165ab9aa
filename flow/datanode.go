package flow

import (
	"context"

	"github.com/viant/dflow/indexalg"
	"github.com/viant/dflow/physarray"
)

// DataNode wraps a constant value folded at parse time (defn.Node's
// eager constant folding turns arithmetic over literals into a single
// Int/Float node before the graph is even built). It is a 0-d, scalar
// producer: every other node treats it as a broadcast wildcard.
type DataNode struct {
	value *physarray.PhysicalArray
}

// NewDataNode wraps a scalar constant as a flow node.
func NewDataNode(v float64) *DataNode {
	return &DataNode{value: physarray.New("", physarray.Dimensionless, nil, nil, []float64{v})}
}

func (n *DataNode) Dims() []string          { return nil }
func (n *DataNode) Shape() []int            { return nil }
func (n *DataNode) Units() physarray.Unit   { return n.value.Units }

// Request ignores req: a scalar is cheap enough that a probe gains
// nothing by withholding the value.
func (n *DataNode) Request(_ context.Context, _ indexalg.Request) (*physarray.PhysicalArray, error) {
	return n.value.Clone(), nil
}
