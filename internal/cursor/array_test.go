package cursor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArray_Walk(t *testing.T) {
	c, err := NewArray([]string{"A", "B", "C"})
	require.NoError(t, err)

	require.Equal(t, "A", c.Current())
	require.True(t, c.IsFirst())
	require.False(t, c.IsLast())

	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	require.Equal(t, "C", c.Current())
	require.True(t, c.IsLast())
	require.False(t, c.IsFirst())

	require.NoError(t, c.Prev())
	require.NoError(t, c.Prev())
	require.Equal(t, "A", c.Current())
	require.True(t, c.IsFirst())
}

func TestArray_Empty(t *testing.T) {
	_, err := NewArray[int](nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestArray_OutOfRange(t *testing.T) {
	c, err := NewArray([]int{7})
	require.NoError(t, err)
	require.True(t, c.IsFirst())
	require.True(t, c.IsLast())

	require.ErrorIs(t, c.Next(), ErrOutOfRange)
	require.ErrorIs(t, c.Prev(), ErrOutOfRange)
	require.Equal(t, 7, c.Current())
}

func TestArray_Position(t *testing.T) {
	c, err := NewArray(ints(5))
	require.NoError(t, err)

	_, err = Skip[int](c, 3)
	require.NoError(t, err)
	p := c.Position()
	require.NoError(t, Rewind[int](c))

	require.NoError(t, c.SetPosition(p))
	require.Equal(t, 3, c.Current())
}

func TestArray_RejectsForeignPosition(t *testing.T) {
	c, err := NewArray(ints(3))
	require.NoError(t, err)

	err = c.SetPosition(SplitPosition{Inner: ArrayPosition{Index: 1}})
	require.ErrorIs(t, err, ErrForeignPosition)
	require.Equal(t, 0, c.Current())

	err = c.SetPosition(ArrayPosition{Index: 3})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestCollect(t *testing.T) {
	c, err := NewArray(ints(4))
	require.NoError(t, err)

	got, err := Collect[int](c)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, got)
	require.True(t, c.IsLast())

	back, err := CollectBackward[int](c)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 1, 0}, back)
}

func TestSkip_StopsAtEnds(t *testing.T) {
	c, err := NewArray(ints(4))
	require.NoError(t, err)

	moved, err := Skip[int](c, 10)
	require.NoError(t, err)
	require.Equal(t, 3, moved)

	moved, err = Skip[int](c, -2)
	require.NoError(t, err)
	require.Equal(t, -2, moved)
	require.Equal(t, 1, c.Current())
}
