package backup

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/Spectre3222/incremental-backup/internal/dirsyncer"
)

//TimeLayout is the layout of the start and completion times printed to the console.
const TimeLayout = "02-01-2006 - 15:04:05"

//WriteSummary prints a per-folder table followed by the totals line.
func WriteSummary(w io.Writer, s Summary) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Source", "Target", "Copied", "Skipped", "Deleted", "Failures", "Status"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	for _, p := range s.Pairs {
		table.Append([]string{
			p.Source,
			p.Target,
			strconv.Itoa(p.Result.Copied),
			strconv.Itoa(p.Result.Skipped),
			strconv.Itoa(p.Result.Deleted),
			strconv.Itoa(len(p.Failures)),
			pairStatus(p),
		})
	}
	table.Render()

	total := s.Total()
	_, err := fmt.Fprintf(w, "Summary: %d files copied, %d files skipped, %d files/directories deleted.\n",
		total.Copied, total.Skipped, total.Deleted)
	return err
}

func pairStatus(p PairResult) string {
	switch {
	case errors.Is(p.Err, dirsyncer.ErrSourceMissing):
		return "source missing"
	case errors.Is(p.Err, dirsyncer.ErrSourceNotDir):
		return "source not a folder"
	case errors.Is(p.Err, dirsyncer.ErrTargetUncreatable):
		return "target uncreatable"
	case p.Err != nil:
		return "failed"
	case len(p.Failures) > 0:
		return "partial"
	default:
		return "ok"
	}
}
