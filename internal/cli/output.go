package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/cli/ui"
)

var resultCols = []string{"To", "Status", "SMS Ref", "Error"}

// printResults renders send results in the selected format.
func printResults(w io.Writer, format string, results []smsbroadcast.SendResult, color bool) error {
	switch format {
	case "json":
		return json.NewEncoder(w).Encode(map[string]any{"results": results})
	case "csv":
		rows := make([][]string, len(results))
		for i, r := range results {
			rows[i] = []string{r.Number, strconv.FormatBool(r.Success), r.SMSRef, r.Error}
		}
		return writeCSV(w, []string{"to", "success", "smsref", "error"}, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(resultCols, "\t"))
	fmt.Fprintln(tw, strings.Repeat("---\t", len(resultCols)))
	for _, r := range results {
		status := ui.SymbolCheck + " sent"
		if !r.Success {
			status = ui.SymbolCross + " rejected"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Number, status, r.SMSRef, r.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sent, rejected := countResults(results)
	summary := fmt.Sprintf("%d sent, %d rejected", sent, rejected)
	if rejected > 0 {
		summary = yellow(summary, color)
	} else {
		summary = green(summary, color)
	}
	_, err := fmt.Fprintf(w, "\n%s\n", summary)
	return err
}

func countResults(results []smsbroadcast.SendResult) (sent, rejected int) {
	for _, r := range results {
		if r.Success {
			sent++
		} else {
			rejected++
		}
	}
	return sent, rejected
}
