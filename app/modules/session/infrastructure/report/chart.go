package sessionreport

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var seriesColors = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("17becf"),
}

// RenderChart writes a PNG line chart of every player's running total.
func RenderChart(w io.Writer, s Sheet) error {
	if len(s.Rows) == 0 || len(s.Players) == 0 {
		return renderPlaceholder(w, "No rounds played yet")
	}

	series := make([]chart.Series, 0, len(s.Players))
	lo, hi := 0.0, 0.0
	for i, name := range s.Players {
		running := s.Running[i]
		xs := make([]float64, len(running))
		ys := make([]float64, len(running))
		for round, total := range running {
			xs[round] = float64(round)
			ys[round] = float64(total)
			lo, hi = min(lo, ys[round]), max(hi, ys[round])
		}
		color := seriesColors[i%len(seriesColors)]
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	graph := chart.Chart{
		Width:  900,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name: "Round",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis:  chart.YAxis{Name: "Total"},
		Series: series,
	}
	if lo == hi {
		// go-chart rejects an empty value range.
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// renderPlaceholder draws msg on a blank canvas. Chart.Render refuses to draw
// without series, so the renderer is used directly.
func renderPlaceholder(w io.Writer, msg string) error {
	const width, height = 400, 200

	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load chart font: %w", err)
	}
	r, err := chart.PNG(width, height)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(drawing.ColorBlack)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	if err := r.Save(w); err != nil {
		return fmt.Errorf("failed to render chart placeholder: %w", err)
	}
	return nil
}
