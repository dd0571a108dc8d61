package model

// ReportRow is one line of the per-date status report.
type ReportRow struct {
	Hour            string `json:"hour"`
	Duration        string `json:"duration"`
	TrimmedDuration string `json:"trimmed_duration"`
	Trimmed         string `json:"trimmed"`
	Status          string `json:"status"`
}
