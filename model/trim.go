package model

import "time"

const (
	TrimStatusSuccess  = "success"
	TrimStatusFailed   = "failed"
	TrimStatusNotFound = "not_found"
)

// TrimRecord is one trim attempt, kept for the history view.
type TrimRecord struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"size:100;index"`
	RelativePath string    `json:"relativePath" gorm:"size:512;index"`
	HourFile     string    `json:"hourFile" gorm:"size:255"`
	OutputFile   string    `json:"outputFile" gorm:"size:255"`
	SizeBytes    int64     `json:"sizeBytes"`
	ElapsedMs    int64     `json:"elapsedMs"`
	Status       string    `json:"status" gorm:"size:20;index"` // success, failed, not_found
	Error        string    `json:"error,omitempty" gorm:"type:text"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
}

// TableName 指定表名
func (TrimRecord) TableName() string {
	return "trim_records"
}
