package bloodtest

import (
	"encoding/json"
	"sort"
)

// Record is a single blood-test report. Every lab field is optional because
// extraction from scanned reports is partial more often than not. A record is
// never mutated after creation and is identified by (owner, report date).
type Record struct {
	ReportDate *Date `json:"report_date,omitempty"`

	WBC         *float64 `json:"WBC,omitempty"`          // white blood cell count
	RBC         *float64 `json:"RBC,omitempty"`          // red blood cell count
	HGB         *float64 `json:"HGB,omitempty"`          // hemoglobin
	HCT         *float64 `json:"HCT,omitempty"`          // hematocrit
	MCV         *float64 `json:"MCV,omitempty"`          // mean corpuscular volume
	MCH         *float64 `json:"MCH,omitempty"`          // mean corpuscular hemoglobin
	MCHC        *float64 `json:"MCHC,omitempty"`         // mean corpuscular hemoglobin concentration
	PLT         *float64 `json:"PLT,omitempty"`          // platelet count
	LYMPercent  *float64 `json:"LYM_percent,omitempty"`  // lymphocyte percentage
	MXDPercent  *float64 `json:"MXD_percent,omitempty"`  // mixed cell percentage
	NEUTPercent *float64 `json:"NEUT_percent,omitempty"` // neutrophil percentage
	LYMCount    *float64 `json:"LYM_count,omitempty"`    // lymphocyte count
	MXDCount    *float64 `json:"MXD_count,omitempty"`    // mixed cell count
	NEUTCount   *float64 `json:"NEUT_count,omitempty"`   // neutrophil count
	RDWSD       *float64 `json:"RDW_SD,omitempty"`       // red cell distribution width (SD)
	RDWCV       *float64 `json:"RDW_CV,omitempty"`       // red cell distribution width (CV)
	PDW         *float64 `json:"PDW,omitempty"`          // platelet distribution width
	MPV         *float64 `json:"MPV,omitempty"`          // mean platelet volume
	PLCR        *float64 `json:"P_LCR,omitempty"`        // platelet large cell ratio
	PCT         *float64 `json:"PCT,omitempty"`          // plateletcrit
}

func (r Record) HasDate() bool {
	return r.ReportDate != nil && !r.ReportDate.IsZero()
}

// SortByDate orders records ascending by report date. Callers are expected to
// have dropped dateless records before sorting.
func SortByDate(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].HasDate() {
			return false
		}
		if !records[j].HasDate() {
			return true
		}
		return records[i].ReportDate.Time().Before(records[j].ReportDate.Time())
	})
}

// Summarize serializes records for prompts and for indexing into the store.
func Summarize(records []Record) string {
	if len(records) == 0 {
		return "No blood test results available"
	}

	bs, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "No blood test results available"
	}

	return string(bs)
}
