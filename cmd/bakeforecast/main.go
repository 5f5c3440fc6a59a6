// Command bakeforecast runs the daily bakery sales forecasting pipeline
// over a sales CSV and writes a forecast CSV plus a JSON diagnostics report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sartorproj/bakeforecast/pipeline"
	"github.com/sartorproj/bakeforecast/sarima"
	"github.com/sartorproj/bakeforecast/timeseries"
)

func main() {
	dataPath := flag.String("data", "", "path to the daily sales CSV (date,sales,weekday)")
	paramsPath := flag.String("params", "", "optional YAML parameters file")
	ordersFlag := flag.String("orders", "0,1,1,0,1,1;1,1,1,0,1,1", "candidate orders as p,d,q,P,D,Q lists separated by ';'")
	forecastOut := flag.String("out", "forecast.csv", "output path for the forecast CSV")
	reportOut := flag.String("report", "report.json", "output path for the JSON diagnostics report")
	flag.Parse()

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "usage: bakeforecast -data sales.csv [-params params.yaml] [-orders ...]")
		os.Exit(2)
	}

	params := pipeline.DefaultParams()
	if *paramsPath != "" {
		var err error
		params, err = pipeline.LoadParams(*paramsPath)
		if err != nil {
			fatal(err)
		}
	}

	orders, err := parseOrders(*ordersFlag, params.SeasonalPeriod)
	if err != nil {
		fatal(err)
	}

	series, err := timeseries.LoadSalesCSV(*dataPath, nil)
	if err != nil {
		fatal(err)
	}

	rule := strings.Repeat("=", 72)
	fmt.Println(rule)
	fmt.Println("Bakery Sales Forecast")
	fmt.Println(rule)
	fmt.Printf("Observations: %d (%s to %s)\n", series.Len(),
		series.Dates[0].Format("2006-01-02"), series.LastDate().Format("2006-01-02"))
	fmt.Printf("Mean daily sales: %.1f (min %.0f, max %.0f)\n", series.Mean(), series.Min(), series.Max())

	report, err := pipeline.Run(series, orders, params)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("\nTraining window: %d days, hold-out: %d days\n", report.TrainLen, report.HoldoutLen)
	if report.ACF != nil && report.PACF != nil {
		fmt.Printf("Significant ACF lags:  %v (band ±%.3f)\n", report.ACF.SignificantLags, report.ACF.ConfBound)
		fmt.Printf("Significant PACF lags: %v\n", report.PACF.SignificantLags)
	}

	fmt.Printf("\n%-24s %10s %10s %8s %8s  %s\n", "candidate", "AIC", "RMSE", "LB stat", "LB p", "status")
	for _, c := range report.Candidates {
		status := "rejected (whiteness)"
		switch {
		case !c.Converged:
			status = "dropped: " + c.SkipReason
		case c.Selected:
			status = "selected"
		case c.White:
			status = "passed"
		}
		if !c.Converged || c.LjungBox == nil {
			fmt.Printf("%-24s %10s %10s %8s %8s  %s\n", c.Order, "-", "-", "-", "-", status)
			continue
		}
		fmt.Printf("%-24s %10.2f %10.2f %8.2f %8.4f  %s\n",
			c.Order, c.AIC, c.RMSE, c.LjungBox.Statistic, c.LjungBox.PValue, status)
	}

	fmt.Printf("\nSelected %s, refit on full history (%d observations)\n", report.Selected, report.Final.NObs)
	fmt.Printf("Final fit: logLik=%.2f AIC=%.2f variance=%.4f\n",
		report.Final.LogLik, report.Final.AIC, report.Final.Variance)

	fmt.Printf("\n%d-day forecast:\n", params.ForecastDays)
	for _, pt := range report.Forecast {
		fmt.Printf("  %s  %7.1f  [%7.1f, %7.1f]\n",
			pt.Date.Format("2006-01-02"), pt.Mean, pt.Lower, pt.Upper)
	}

	if err := writeForecast(*forecastOut, report); err != nil {
		fatal(err)
	}
	fmt.Printf("\nForecast written to %s\n", *forecastOut)

	if err := writeReport(*reportOut, report); err != nil {
		fatal(err)
	}
	fmt.Printf("Diagnostics written to %s\n", *reportOut)
}

// parseOrders parses "p,d,q,P,D,Q" candidate orders separated by ';'.
// The seasonal period comes from the parameters, not the order string.
func parseOrders(s string, period int) ([]sarima.Order, error) {
	var orders []sarima.Order
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 6 {
			return nil, fmt.Errorf("order %q: expected 6 comma-separated values p,d,q,P,D,Q", part)
		}
		vals := make([]int, 6)
		for i, f := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil || v < 0 {
				return nil, fmt.Errorf("order %q: invalid component %q", part, f)
			}
			vals[i] = v
		}
		orders = append(orders, sarima.Order{
			P: vals[0], D: vals[1], Q: vals[2],
			SP: vals[3], SD: vals[4], SQ: vals[5],
			M: period,
		})
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("no candidate orders in %q", s)
	}
	return orders, nil
}

func writeForecast(path string, report *pipeline.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteForecastCSV(f)
}

func writeReport(path string, report *pipeline.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bakeforecast:", err)
	os.Exit(1)
}
