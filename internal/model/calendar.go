package model

import "time"

const (
	CalendarOperations = "operations"
	CalendarReports    = "reports"
	CalendarLeave      = "leave"
)

var CalendarCategories = []string{CalendarOperations, CalendarReports, CalendarLeave}

// RepeatRules are accepted only on report events.
var RepeatRules = []string{"none", "daily", "weekly", "monthly", "yearly"}

type CalendarEvent struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Category   string    `json:"category" gorm:"index;not null"`
	Title      string    `json:"title" gorm:"not null"`
	DateFrom   NullDate  `json:"date_from" gorm:"type:date;not null"`
	DateTo     NullDate  `json:"date_to" gorm:"type:date"`
	EventTime  *string   `json:"event_time"` // nil means all day
	RepeatRule string    `json:"repeat_rule" gorm:"default:none"`
	Username   *string   `json:"username"`
	Remarks    *string   `json:"remarks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
