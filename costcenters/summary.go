package costcenters

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

type Line struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Percent   float64 `json:"percent"`
	Formatted string  `json:"formatted"`
}

// Summary is what the chart legend renders.
type Summary struct {
	Lines          []Line  `json:"lines"`
	Total          float64 `json:"total"`
	TotalFormatted string  `json:"total_formatted"`
}

func Summarize(items []CostCenter) Summary {
	var total float64
	for _, item := range items {
		total += item.Amount
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		var percent float64
		if total > 0 {
			percent = math.Round(item.Amount/total*1000) / 10
		}
		lines = append(lines, Line{
			Name:      item.Name,
			Amount:    item.Amount,
			Percent:   percent,
			Formatted: FormatCurrency(item.Amount),
		})
	}

	return Summary{
		Lines:          lines,
		Total:          total,
		TotalFormatted: FormatCurrency(total),
	}
}

// FormatCurrency renders v as US dollars with thousands separators.
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + printer.Sprintf("$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// WriteCSV exports the summary with a trailing total row.
func WriteCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Cost Center", "Amount", "Percent"}); err != nil {
		return fmt.Errorf("[costcenters WriteCSV] header: %w", err)
	}
	for _, line := range s.Lines {
		record := []string{line.Name, fmt.Sprintf("%.2f", line.Amount), fmt.Sprintf("%.1f", line.Percent)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("[costcenters WriteCSV] row %q: %w", line.Name, err)
		}
	}
	totalPercent := "100.0"
	if s.Total == 0 {
		totalPercent = "0.0"
	}
	if err := cw.Write([]string{"Total", fmt.Sprintf("%.2f", s.Total), totalPercent}); err != nil {
		return fmt.Errorf("[costcenters WriteCSV] total: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
