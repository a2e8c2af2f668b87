package monitor

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// occupancyCellSize is the edge length, in world units, of one heatmap
// cell on the XY occupancy chart.
const occupancyCellSize = 0.5

// renderOccupancyHeatMap renders detection voxels as an XY occupancy
// heatmap: a go-echarts chart built from a flat cell list, rendered to
// w with a text/html content type. Cells are binned by
// occupancyCellSize rather than plotted per-voxel, since the raw carve
// output can contain many adjacent leaf voxels that would otherwise
// overdraw a single occupied region.
func renderOccupancyHeatMap(w io.Writer, detections []geom.Voxel) error {
	counts := make(map[[2]int]int)
	minX, maxX, minY, maxY := math.MaxInt32, math.MinInt32, math.MaxInt32, math.MinInt32
	for _, v := range detections {
		cx := int(math.Floor(v.Center.X / occupancyCellSize))
		cy := int(math.Floor(v.Center.Y / occupancyCellSize))
		counts[[2]int{cx, cy}]++
		if cx < minX {
			minX = cx
		}
		if cx > maxX {
			maxX = cx
		}
		if cy < minY {
			minY = cy
		}
		if cy > maxY {
			maxY = cy
		}
	}

	if len(counts) == 0 {
		minX, maxX, minY, maxY = 0, 0, 0, 0
	}

	xLabels := make([]string, 0, maxX-minX+1)
	for x := minX; x <= maxX; x++ {
		xLabels = append(xLabels, fmt.Sprintf("%.1f", float64(x)*occupancyCellSize))
	}
	yLabels := make([]string, 0, maxY-minY+1)
	for y := minY; y <= maxY; y++ {
		yLabels = append(yLabels, fmt.Sprintf("%.1f", float64(y)*occupancyCellSize))
	}

	maxCount := 1
	data := make([]opts.HeatMapData, 0, len(counts))
	for cell, n := range counts {
		if n > maxCount {
			maxCount = n
		}
		data = append(data, opts.HeatMapData{Value: []interface{}{cell[0] - minX, cell[1] - minY, n}})
	}
	sort.Slice(data, func(i, j int) bool {
		vi, vj := data[i].Value.([]interface{}), data[j].Value.([]interface{})
		if vi[0].(int) != vj[0].(int) {
			return vi[0].(int) < vj[0].(int)
		}
		return vi[1].(int) < vj[1].(int)
	})

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Detection Occupancy", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Detection Occupancy", Subtitle: fmt.Sprintf("cells=%d maxCount=%d", len(data), maxCount)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels, Name: "Y (m)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCount),
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#74add1", "#fed976", "#f46d43", "#a50026"}},
		}),
	)
	hm.AddSeries("occupancy", data)

	return hm.Render(w)
}

// renderSpeedHistory renders a track's speed-over-frames series as a
// PNG on a fixed 14x6 inch canvas, writing directly to w via plot's
// WriterTo rather than saving to a path, since this is served over
// HTTP rather than dumped to a run directory.
func renderSpeedHistory(w io.Writer, trackID string, samples []Sample) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Track %s speed", trackID)
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "speed (units/frame)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: float64(s.FrameIndex), Y: s.Speed}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build speed line: %w", err)
	}
	line.Width = vg.Points(1.5)
	p.Add(line)

	writer, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render speed plot: %w", err)
	}
	_, err = writer.WriteTo(w)
	return err
}
