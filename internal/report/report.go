// Package report turns evaluation results into artifacts: annotated images,
// synthetic layouts, and JSON, CSV and HTML summaries.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/ironsheep/photocircuit/internal/scoring"
)

// CircuitResult is the record of one evaluated circuit. Images are base64
// PNG.
type CircuitResult struct {
	CircuitID string         `json:"circuit_id"`
	Score     scoring.Result `json:"score"`
	// AvgError is Score formatted with two decimals, or "inf".
	AvgError    string  `json:"avg_error"`
	Overlap     float64 `json:"overlap"`
	Similarity  float64 `json:"similarity"`
	CountsMatch bool    `json:"counts_match"`
	CountDiff   string  `json:"count_diff"`
	GridStep    int     `json:"grid_step"`
	ScaleFactor float64 `json:"scale_factor"`

	TestImage     string `json:"test_image,omitempty"`
	ResultImage   string `json:"result_image,omitempty"`
	OrientedImage string `json:"oriented_image,omitempty"`

	Error string `json:"error,omitempty"`
}

// SweepRow is one (circuit, screen size, grid step) measurement.
type SweepRow struct {
	CircuitID    string         `json:"circuit_id"`
	OriginalSize int            `json:"original_size"`
	ScreenSize   int            `json:"screen_size"`
	GridStep     int            `json:"grid_step"`
	Score        scoring.Result `json:"score"`
}

// SweepHeader is the CSV header written by WriteCSV.
var SweepHeader = []string{
	"Circuit Id",
	"Original Size(px)",
	"Screen Size (px)",
	"Interval Size (px)",
	"Average Error (px)",
}

// Record returns the CSV fields of a row. Incomparable scores are "inf".
func (r SweepRow) Record() []string {
	return []string{
		r.CircuitID,
		strconv.Itoa(r.OriginalSize),
		strconv.Itoa(r.ScreenSize),
		strconv.Itoa(r.GridStep),
		r.Score.String(),
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// WriteCSV writes the sweep rows under SweepHeader.
func WriteCSV(w io.Writer, rows []SweepRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SweepHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Circuit detection report</title>
<style>
body { font-family: sans-serif; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 6px; vertical-align: top; }
img { max-width: 480px; }
pre { margin: 0; }
</style>
</head>
<body>
<h1>Circuit detection report</h1>
<p>{{.Summary.Comparable}} of {{.Summary.Total}} circuits comparable, mean error {{printf "%.2f" .Summary.Mean}} px.</p>
<table>
<tr><th>Circuit</th><th>Average error (px)</th><th>Counts</th><th>Test image</th><th>Result</th><th>Layout</th></tr>
{{range .Results}}<tr>
<td>{{.CircuitID}}</td>
<td>{{.AvgError}}{{if .Error}}<br>{{.Error}}{{end}}</td>
<td><pre>{{.CountDiff}}</pre></td>
<td>{{if .TestImage}}<img src="data:image/png;base64,{{.TestImage}}">{{end}}</td>
<td>{{if .ResultImage}}<img src="data:image/png;base64,{{.ResultImage}}">{{end}}</td>
<td>{{if .OrientedImage}}<img src="data:image/png;base64,{{.OrientedImage}}">{{end}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

// WriteHTML renders a browsable report with the images inline.
func WriteHTML(w io.Writer, results []CircuitResult) error {
	scores := make([]scoring.Result, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	data := struct {
		Results []CircuitResult
		Summary scoring.Summary
	}{results, scoring.Summarize(scores)}

	if err := htmlReport.Execute(w, data); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	return nil
}
