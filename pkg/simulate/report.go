package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"github.com/sugawarayuuta/sonnet"
)

// WriteText prints one block per strategy. Single-trial runs keep the bare
// layout; repeated runs add the spread.
func WriteText(writer io.Writer, stats []TrialStats) {
	for _, st := range stats {
		fmt.Fprintf(writer, "Algorithm: %v\n", st.Strategy)
		if len(st.Seconds) > 1 {
			fmt.Fprintf(writer, "  Total time: %.6g seconds (std %.3g)\n", st.MeanSeconds, st.StdSeconds)
			fmt.Fprintf(writer, "  Total cost: $%.6g (std $%.3g)\n", st.MeanCost, st.StdCost)
		} else {
			fmt.Fprintf(writer, "  Total time: %.6g seconds\n", st.MeanSeconds)
			fmt.Fprintf(writer, "  Total cost: $%.6g\n", st.MeanCost)
		}
		fmt.Fprintln(writer, "-----------------------------")
	}
}

// Report pairs the scenario with the per-strategy outcomes so a result file
// stays interpretable on its own.
type Report struct {
	Scenario   Scenario     `json:"scenario"`
	Strategies []TrialStats `json:"strategies"`
}

// WriteJSON writes the machine-readable report to path.
func WriteJSON(path string, sc *Scenario, stats []TrialStats) error {
	raw, err := sonnet.Marshal(&Report{Scenario: *sc, Strategies: stats})
	if err != nil {
		return errors.Wrap(err, "Couldn't encode simulation report")
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrap(err, "Couldn't write simulation report")
	}
	return nil
}

func strategyBar(title string, unit string, stats []TrialStats, pick func(TrialStats) float64) *charts.Bar {
	names := make([]string, 0, len(stats))
	values := make([]opts.BarData, 0, len(stats))
	for _, st := range stats {
		names = append(names, st.Strategy)
		values = append(values, opts.BarData{Value: pick(st)})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)
	bar.SetXAxis(names).AddSeries(unit, values)
	return bar
}

// WritePlot renders an HTML page with one bar chart for time and one for
// cost, both over the whole strategy lineup.
func WritePlot(path string, stats []TrialStats) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		strategyBar("Simulated sort time", "seconds", stats,
			func(st TrialStats) float64 { return st.MeanSeconds }),
		strategyBar("Simulated sort cost", "dollars", stats,
			func(st TrialStats) float64 { return st.MeanCost }),
	)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Couldn't create plot file %v", path)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return errors.Wrap(err, "Couldn't render plot")
	}
	return nil
}
