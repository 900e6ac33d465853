package charts

import (
	"bytes"
	"math"
	"testing"

	"expenses/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func segments(expenses ...core.Expense) []core.Segment {
	return core.Summarize(expenses).Segments()
}

func TestDistributionRendersPNG(t *testing.T) {
	g := NewGenerator()
	segs := segments(
		core.Expense{ID: 1, Name: "Taxi", Amount: 200, Category: core.Car},
		core.Expense{ID: 2, Name: "Movie", Amount: 300, Category: core.Entertainment},
	)

	png, err := g.Distribution(1, segs)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestDistributionHidden(t *testing.T) {
	g := NewGenerator()

	png, err := g.Distribution(0, nil)
	require.NoError(t, err)
	assert.Nil(t, png)

	// Only negative shares: nothing drawable.
	png, err = g.Distribution(1, []core.Segment{{Category: core.Food, Amount: -5, Percent: -100}})
	require.NoError(t, err)
	assert.Nil(t, png)

	png, err = g.Distribution(2, []core.Segment{{Category: core.Food, Percent: math.NaN()}})
	require.NoError(t, err)
	assert.Nil(t, png)
}

func TestDistributionCachedPerVersion(t *testing.T) {
	g := NewGenerator()
	segs := segments(core.Expense{ID: 1, Name: "Coffee", Amount: 500, Category: core.Food})

	first, err := g.Distribution(7, segs)
	require.NoError(t, err)
	second, err := g.Distribution(7, segs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), g.Cache().Stats().Hits)
	assert.Equal(t, 1, g.Cache().Size())
}

func TestBarValues(t *testing.T) {
	segs := segments(
		core.Expense{ID: 1, Name: "a", Amount: 100, Category: core.Food},
		core.Expense{ID: 2, Name: "b", Amount: -20, Category: core.Car},
		core.Expense{ID: 3, Name: "c", Amount: 20, Category: "Rent"},
	)

	values := barValues(segs)
	require.Len(t, values, 2)
	assert.Equal(t, "Food (100%)", values[0].Label)
	assert.Equal(t, "Rent (20%)", values[1].Label)
}
