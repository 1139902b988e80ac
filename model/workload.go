package model

import "gorm.io/gorm"

// StaffWorkload is one row of the per-clinician follow-up workload report.
// Totals are synced from the task engine; Rate is derived at read time.
type StaffWorkload struct {
	gorm.Model
	Name      string `json:"name" example:"林主任"`
	Dept      string `json:"dept" example:"消化内科"`
	Total     int    `json:"total" example:"157"`
	Completed int    `json:"completed" example:"145"`
	Overdue   int    `json:"overdue" example:"4"`
}

// CompletionRate is completed over total as a percentage, 0 when no tasks.
func (w StaffWorkload) CompletionRate() float64 {
	if w.Total == 0 {
		return 0
	}
	return float64(w.Completed) / float64(w.Total) * 100
}
