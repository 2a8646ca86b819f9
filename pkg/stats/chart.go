package stats

import (
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// chartWidth and chartHeight size the --chart HTML page.
const (
	chartWidth  = "1000px"
	chartHeight = "600px"
)

// WriteChart renders a bar chart of functions-per-unit, one bar per plan
// unit in plan order, to an HTML file at path.
func WriteChart(path string, plan unitplan.Plan) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Functions per unit"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Object file"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Functions"}),
	)

	labels := make([]string, len(plan))
	data := make([]opts.BarData, len(plan))

	for i, unit := range plan {
		labels[i] = unit.ObjectFile
		data[i] = opts.BarData{Value: len(unit.Functions)}
	}

	bar.SetXAxis(labels).AddSeries("functions", data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return bar.Render(f)
}
