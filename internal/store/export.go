package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/windtunnel/internal/aero"
)

type ExportData struct {
	Run     *RunMetadata  `json:"run"`
	Steps   int           `json:"steps"`
	Samples []aero.Sample `json:"samples"`
}

// ExportCSV writes tick,drag,lift rows with a header.
func ExportCSV(w io.Writer, samples []aero.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tick", "drag", "lift"}); err != nil {
		return err
	}
	for i, s := range samples {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(s.Drag, 'g', -1, 64),
			strconv.FormatFloat(s.Lift, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportJSON(w io.Writer, meta *RunMetadata, samples []aero.Sample) error {
	data := ExportData{
		Run:     meta,
		Steps:   len(samples),
		Samples: samples,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
