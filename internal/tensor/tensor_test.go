package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateLengthAndZeroed(t *testing.T) {
	dims := [][3]int{{1, 1, 1}, {2, 2, 3}, {640, 480, 3}, {7, 3, 1}, {5, 9, 4}}
	for _, d := range dims {
		tn, err := Allocate(d[0], d[1], d[2])
		require.NoError(t, err)
		assert.Equal(t, d[0]*d[1]*d[2], tn.Len())
		assert.Len(t, tn.Data(), d[0]*d[1]*d[2])
		for i, v := range tn.Data() {
			if v != 0 {
				t.Fatalf("element %d = %v, want 0", i, v)
			}
		}
		tn.Release()
	}
}

func TestAllocateZeroesRecycledBuffer(t *testing.T) {
	first, err := Allocate(4, 4, 3)
	require.NoError(t, err)
	for i := range first.Data() {
		first.Data()[i] = 42
	}
	first.Release()

	second, err := Allocate(4, 4, 3)
	require.NoError(t, err)
	defer second.Release()
	for i, v := range second.Data() {
		if v != 0 {
			t.Fatalf("element %d = %v after reuse, want 0", i, v)
		}
	}
}

func TestAllocateInvalidDimension(t *testing.T) {
	cases := [][3]int{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}, {-3, 2, 2}, {2, -1, 3}, {2, 2, -3}}
	for _, d := range cases {
		_, err := Allocate(d[0], d[1], d[2])
		assert.ErrorIs(t, err, ErrInvalidDimension, "%v", d)
	}
}

func TestAllocateOverflow(t *testing.T) {
	_, err := Allocate(1<<20, 1<<20, 3)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Allocate(1<<16, 1<<14, 4)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReleaseIsIdempotent(t *testing.T) {
	tn, err := Allocate(2, 2, 3)
	require.NoError(t, err)

	tn.Release()
	assert.Nil(t, tn.Data())
	assert.NotPanics(t, tn.Release)
	assert.Nil(t, tn.Data())
	assert.Equal(t, 12, tn.Len(), "shape survives release")

	var nilTensor *Tensor
	assert.NotPanics(t, nilTensor.Release)
}

func TestPlanarViews(t *testing.T) {
	tn, err := Allocate(3, 2, 3)
	require.NoError(t, err)
	defer tn.Release()

	tn.Plane(1)[0] = 0.5
	tn.Plane(2)[5] = 1

	data := tn.Data()
	assert.Equal(t, float32(0.5), data[6])
	assert.Equal(t, float32(1), data[17])
	assert.Len(t, tn.Plane(0), 6)
	assert.Nil(t, tn.Plane(3))
	assert.Nil(t, tn.Plane(-1))
	assert.Equal(t, []int64{1, 3, 2, 3}, tn.Shape())
}
