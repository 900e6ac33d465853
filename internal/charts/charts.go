package charts

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"expenses/internal/cache"
	"expenses/internal/core"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 320
	defaultHeight = 640
)

// Generator renders the category distribution as a PNG stacked bar. Output
// is cached per ledger version, so repeated requests between mutations reuse
// the same bytes.
type Generator struct {
	Width  int
	Height int
	cache  *cache.LRUCache[[]byte]
}

// NewGenerator creates a generator that keeps the last few renders.
func NewGenerator() *Generator {
	return &Generator{
		Width:  defaultWidth,
		Height: defaultHeight,
		cache:  cache.NewLRUCache[[]byte](8, 10*time.Minute),
	}
}

// Cache exposes the render cache for periodic cleanup.
func (g *Generator) Cache() *cache.LRUCache[[]byte] {
	return g.cache
}

// Distribution returns the PNG for segments at the given ledger version.
// It returns nil without error when nothing can be drawn: the bar is hidden
// or no segment has a positive share.
func (g *Generator) Distribution(version uint64, segments []core.Segment) ([]byte, error) {
	values := barValues(segments)
	if len(values) == 0 {
		return nil, nil
	}

	key := strconv.FormatUint(version, 10)
	return g.cache.GetOrLoad(key, func() ([]byte, error) {
		return g.render(values)
	})
}

// barValues keeps drawable segments. Stacked bars cannot show negative or
// undefined shares, so those are left out of the image.
func barValues(segments []core.Segment) []chart.Value {
	values := make([]chart.Value, 0, len(segments))
	for _, sg := range segments {
		if !sg.Visible() || sg.Percent <= 0 {
			continue
		}
		color := drawing.ColorFromHex(sg.Category.Hex())
		values = append(values, chart.Value{
			Label: sg.Label(),
			Value: sg.Percent,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
				FontSize:    10,
				FontColor:   chart.ColorBlack,
			},
		})
	}
	return values
}

func (g *Generator) render(values []chart.Value) ([]byte, error) {
	graph := chart.StackedBarChart{
		Width:  g.Width,
		Height: g.Height,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.Style{Hidden: true},
		YAxis: chart.Style{Hidden: true},
		Bars: []chart.StackedBar{
			{
				Name:   "Expenses",
				Width:  g.Width - 80,
				Values: values,
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render distribution chart: %w", err)
	}
	return buffer.Bytes(), nil
}
