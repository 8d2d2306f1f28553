package postprocess

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/tensor"
)

// detrOutputs builds a [1,Q,C] logits and [1,Q,4] boxes pair.
func detrOutputs(logits [][]float32, boxes [][4]float32) []tensor.Output {
	q := len(boxes)
	c := len(logits[0])
	l := tensor.Output{Name: "logits", Shape: []int64{1, int64(q), int64(c)}}
	b := tensor.Output{Name: "pred_boxes", Shape: []int64{1, int64(q), 4}}
	for i := range boxes {
		l.Data = append(l.Data, logits[i]...)
		b.Data = append(b.Data, boxes[i][:]...)
	}
	return []tensor.Output{l, b}
}

func onehot(class int, hot float32) []float32 {
	row := make([]float32, len(Labels))
	for i := range row {
		row[i] = -10
	}
	row[class] = hot
	return row
}

func TestDecode(t *testing.T) {
	outputs := detrOutputs(
		[][]float32{onehot(8, 4), onehot(9, -4), onehot(10, 2)},
		[][4]float32{
			{0.5, 0.5, 0.5, 0.5},
			{0.2, 0.2, 0.1, 0.1},
			{0.1, 0.1, 0.4, 0.4}, // extends past the top-left corner
		},
	)

	boxes := NewDecoder(0).Decode(outputs, 200, 100)
	require.Len(t, boxes, 2)

	want := []layout.BoundingBox{
		{X: 50, Y: 25, Width: 100, Height: 50, Label: "Table"},
		{X: 0, Y: 0, Width: 60, Height: 30, Label: "Title"},
	}
	opts := []cmp.Option{
		cmpopts.IgnoreFields(layout.BoundingBox{}, "Score"),
		cmpopts.EquateApprox(0, 1e-3),
	}
	if diff := cmp.Diff(want, boxes, opts...); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
	assert.Greater(t, boxes[0].Score, boxes[1].Score)
}

func TestDecodeThreshold(t *testing.T) {
	outputs := detrOutputs(
		[][]float32{onehot(9, 0.5)}, // sigmoid(0.5) ~ 0.62
		[][4]float32{{0.5, 0.5, 0.2, 0.2}},
	)
	assert.Len(t, NewDecoder(0.6).Decode(outputs, 10, 10), 1)
	assert.Empty(t, NewDecoder(0.7).Decode(outputs, 10, 10))
}

func TestDecodeByShape(t *testing.T) {
	outputs := detrOutputs([][]float32{onehot(0, 5)}, [][4]float32{{0.5, 0.5, 1, 1}})
	outputs[0].Name, outputs[1].Name = "out0", "out1"

	boxes := NewDecoder(0).Decode(outputs, 10, 10)
	require.Len(t, boxes, 1)
	assert.Equal(t, "Caption", boxes[0].Label)
}

func TestDecodeUnknownLayout(t *testing.T) {
	d := NewDecoder(0)
	assert.Empty(t, d.Decode(nil, 10, 10))
	assert.Empty(t, d.Decode([]tensor.Output{{Name: "features", Shape: []int64{1, 256}, Data: make([]float32, 256)}}, 10, 10))
	assert.Empty(t, d.Decode([]tensor.Output{{Name: "boxes", Shape: []int64{1, 0, 4}}}, 10, 10))
}

func TestLabel(t *testing.T) {
	assert.Len(t, Labels, 17)
	assert.Equal(t, "Key-Value Region", Label(16))
	assert.Equal(t, "", Label(17))
	assert.Equal(t, "", Label(-1))
}
