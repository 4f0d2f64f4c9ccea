package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

func writeTable(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if r.Ranked != nil {
		fmt.Fprintln(tw, "RANK\tMESSAGE\tLAT\tLNG\tRECEIVERS\tDISTANCE_KM\tPLACE")
	} else {
		fmt.Fprintln(tw, "MESSAGE\tLAT\tLNG\tRECEIVERS\tMODE\tPLACE")
	}
	for i, row := range r.rows() {
		if row.ranked {
			fmt.Fprintf(tw, "%d\t%s\t%.*f\t%.*f\t%d\t%.3f\t%s\n",
				i+1, row.MessageID, coordDecimals, row.DeviceLat, coordDecimals, row.DeviceLng,
				row.Receivers, row.distanceKm, row.PlaceName)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.*f\t%.*f\t%d\t%s\t%s\n",
			row.MessageID, coordDecimals, row.DeviceLat, coordDecimals, row.DeviceLng,
			row.Receivers, row.Mode, row.PlaceName)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Summary != nil {
		if _, err := fmt.Fprintf(w, "\nmean position: %.*f, %.*f\n",
			coordDecimals, r.Summary.Lat, coordDecimals, r.Summary.Lng); err != nil {
			return err
		}
	}
	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "failed: %v\n", f); err != nil {
			return err
		}
	}
	return nil
}
