// Package export renders schedules for command line output.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/dayplan/core/model"
)

// CSVHeader is the first record written by WriteCSV.
var CSVHeader = []string{"date", "index", "desc", "start_time", "end_time", "category"}

// WriteJSON writes placements to w as an indented JSON array.
func WriteJSON(w io.Writer, placements []model.Placement) error {
	if placements == nil {
		placements = []model.Placement{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(placements)
}

// WriteCSV writes placements to w with a header row.
func WriteCSV(w io.Writer, placements []model.Placement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, p := range placements {
		rec := []string{
			p.Date,
			strconv.Itoa(p.Index),
			p.Desc,
			p.StartTime,
			p.EndTime,
			p.Category,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
