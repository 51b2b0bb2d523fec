package model

import "time"

// DailyLogins counts login attempts per day.
type DailyLogins struct {
	Date      NullDate `json:"date"`
	Successes int64    `json:"successes"`
	Failures  int64    `json:"failures"`
}

type Statistics struct {
	Items                 int64            `json:"items"`
	Models                int64            `json:"models"`
	Units                 int64            `json:"units"`
	Users                 int64            `json:"users"`
	CalibrationDue        int64            `json:"calibration_due"`
	CalibrationOverdue    int64            `json:"calibration_overdue"`
	CalibrationWindowDays int              `json:"calibration_window_days"`
	FormsByType           map[string]int64 `json:"forms_by_type"`
	FormsByStatus         map[string]int64 `json:"forms_by_status"`
	DailyLogins           []DailyLogins    `json:"daily_logins"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// PendingForms counts forms still waiting for an admin decision.
func (s *Statistics) PendingForms() int64 {
	return s.FormsByStatus[FormSubmitted]
}
