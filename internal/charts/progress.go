// Package charts renders lift progress charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"slices"

	"github.com/claude/teamlift/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

var failColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}

// Point is one attempt on the chart.
type Point struct {
	Weight float64
	Passed bool
}

// PointsFromWorkouts returns an athlete's graded attempts at ex in
// chronological order.
func PointsFromWorkouts(records []models.WorkoutRecord, ex models.Exercise) []Point {
	var graded []models.WorkoutRecord
	for _, r := range records {
		if r.Exercise == ex && r.Graded() {
			graded = append(graded, r)
		}
	}
	slices.SortStableFunc(graded, func(a, b models.WorkoutRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	points := make([]Point, len(graded))
	for i, r := range graded {
		points[i] = Point{Weight: r.Weight, Passed: r.Result == models.Pass}
	}
	return points
}

// RenderProgress draws the attempted weights as a line with one marker
// per attempt. Failed attempts are marked in red.
func RenderProgress(title string, points []Point) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	all := make(plotter.XYs, len(points))
	var failed plotter.XYs
	for i, pt := range points {
		all[i].X = float64(i + 1)
		all[i].Y = pt.Weight
		if !pt.Passed {
			failed = append(failed, all[i])
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Attempt"
	p.Y.Label.Text = "Weight (lb)"

	line, err := plotter.NewLine(all)
	if err != nil {
		return nil, fmt.Errorf("building line: %w", err)
	}
	scatter, err := plotter.NewScatter(all)
	if err != nil {
		return nil, fmt.Errorf("building scatter: %w", err)
	}
	p.Add(line, scatter)
	p.Legend.Add("attempts", scatter)

	if len(failed) > 0 {
		fails, err := plotter.NewScatter(failed)
		if err != nil {
			return nil, fmt.Errorf("building fail markers: %w", err)
		}
		fails.GlyphStyle.Color = failColor
		p.Add(fails)
		p.Legend.Add("failed", fails)
	}

	writerTo, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writerTo.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding chart: %w", err)
	}
	return buf.Bytes(), nil
}
