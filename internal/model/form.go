package model

import "time"

// Form record lifecycle. A record is Reserved while its PDF is rendered and
// mailed, and Submitted once delivery succeeded.
const (
	FormReserved  = "Reserved"
	FormSubmitted = "Submitted"
	FormApproved  = "Approved"
	FormRejected  = "Rejected"
)

type FormRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Username      string    `json:"username" gorm:"index;not null"`
	FullName      string    `json:"full_name"`
	ControlNumber string    `json:"control_number" gorm:"uniqueIndex;not null"`
	FormType      string    `json:"form_type" gorm:"index;not null"`
	SubmittedOn   time.Time `json:"submitted_on" gorm:"autoCreateTime"`
	Status        string    `json:"status" gorm:"not null"`
	Payload       JSONText  `json:"payload" gorm:"type:text"`
	UpdatedAt     time.Time `json:"updated_at"`
}
