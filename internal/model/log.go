package model

import "time"

type OperationLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Actor     string    `json:"actor" gorm:"index"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	TargetID  string    `json:"target_id"`
	Details   JSONText  `json:"details" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
