package model

import (
	"time"

	"deskhub/internal/balance"
)

// User is the canonical users table. It is only used to create the table on
// an empty database; existing users tables are read through the schema
// package and never migrated.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	FullName     *string
	Email        *string
	Role         string   `gorm:"default:'user'"`
	IsActive     bool     `gorm:"default:true"`
	LastLogin    NullTime `gorm:"type:timestamp"`
	UpdatedOn    NullTime `gorm:"type:timestamp"`
	UpdatedBy    *string
	CreatedAt    time.Time `gorm:"autoCreateTime;default:CURRENT_TIMESTAMP"`
	PasswordHash string    `gorm:"not null"`
	NricFin      *string
	MobileNo     *string
	Address1     *string  `gorm:"column:address1"`
	Address2     *string  `gorm:"column:address2"`
	Address3     *string  `gorm:"column:address3"`
	Birthdate    NullDate `gorm:"type:date"`
	Office       *string

	UserLeaveTotal       balance.Amount `gorm:"type:numeric"`
	UserClaimoffTotal    balance.Amount `gorm:"type:numeric"`
	UserChildcareTotal   balance.Amount `gorm:"type:numeric"`
	UserMcTotal          balance.Amount `gorm:"type:numeric"`
	UserLeaveUsed        balance.Amount `gorm:"type:numeric"`
	UserClaimoffUsed     balance.Amount `gorm:"type:numeric"`
	UserChildcareUsed    balance.Amount `gorm:"type:numeric"`
	UserMcUsed           balance.Amount `gorm:"type:numeric"`
	UserLeaveBalance     balance.Amount `gorm:"type:numeric"`
	UserClaimoffBalance  balance.Amount `gorm:"type:numeric"`
	UserChildcareBalance balance.Amount `gorm:"type:numeric"`
	UserMcBalance        balance.Amount `gorm:"type:numeric"`
}

func (User) TableName() string { return "users" }

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// AllowedApps lists the front-end applications a role may open.
func AllowedApps(role string) []string {
	switch role {
	case RoleSuperAdmin:
		return []string{"inventory", "leaveform", "controlpanel"}
	case RoleAdmin:
		return []string{"inventory", "leaveform"}
	default:
		return []string{"leaveform"}
	}
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin || role == RoleSuperAdmin
}

var Offices = []string{"Singapore", "Kuala Lumpur"}

// ValidOffice accepts one of Offices or the empty string.
func ValidOffice(office string) bool {
	if office == "" {
		return true
	}
	for _, o := range Offices {
		if o == office {
			return true
		}
	}
	return false
}
