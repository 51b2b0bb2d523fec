package model

import (
	"time"

	"deskhub/internal/balance"
)

type Item struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Remarks       string    `json:"remarks"`
	LastUpdatedOn time.Time `json:"last_updated_on" gorm:"autoUpdateTime"`
	LastUpdatedBy string    `json:"last_updated_by"`
}

// EquipmentModel is a model of an item, e.g. a particular meter.
type EquipmentModel struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ItemID         uint      `json:"item_id" gorm:"index;not null"`
	ModelName      string    `json:"model_name" gorm:"not null"`
	Remarks        string    `json:"remarks"`
	ModelsRemarks1 string    `json:"models_remarks1" gorm:"column:models_remarks1"`
	UpdatedOn      time.Time `json:"updated_on" gorm:"autoUpdateTime"`
	UpdatedBy      string    `json:"updated_by"`
}

func (EquipmentModel) TableName() string { return "models" }

// ModelView is a model row joined with its item's name. ItemName is nil
// when the item has been deleted.
type ModelView struct {
	EquipmentModel
	Name     string  `json:"name"`
	ItemName *string `json:"item_name"`
}

type Unit struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ItemID           *uint     `json:"item_id" gorm:"index"`
	ModelID          *uint     `json:"model_id" gorm:"index"`
	SerialNumber     *string   `json:"serial_number" gorm:"uniqueIndex"`
	Brand            *string   `json:"brand"`
	PurchaseDate     NullDate  `json:"purchase_date" gorm:"type:date"`
	LastCalibration  NullDate  `json:"last_calibration" gorm:"type:date"`
	NextCalibration  NullDate  `json:"next_calibration" gorm:"type:date;index"`
	PoNumber         *string   `json:"po_number"`
	InvoiceNumber    *string   `json:"invoice_number"`
	InvoiceDate      NullDate  `json:"invoice_date" gorm:"type:date"`
	Amount           *float64  `json:"amount"`
	SubscriptionInfo *string   `json:"subscription_info"`
	Remarks          *string   `json:"remarks"`
	Remarks1         *string   `json:"remarks1" gorm:"column:remarks1"`
	Remarks2         *string   `json:"remarks2" gorm:"column:remarks2"`
	Remarks3         *string   `json:"remarks3" gorm:"column:remarks3"`
	LastUpdatedBy    string    `json:"last_updated_by"`
	LastUpdatedOn    time.Time `json:"last_updated_on" gorm:"autoUpdateTime"`
}

type UnitView struct {
	Unit
	ItemName  *string `json:"item_name"`
	ModelName *string `json:"model_name"`
}

const (
	MovementIn  = "In"
	MovementOut = "Out"
)

// InventoryMovement records equipment moving in or out of a location.
type InventoryMovement struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Inventory    string         `json:"inventory" gorm:"not null"`
	InvDate      NullDate       `json:"date" gorm:"type:date"`
	InvTime      *string        `json:"time"`
	FromLocation *string        `json:"from_location"`
	ToLocation   *string        `json:"to_location"`
	ItemID       *uint          `json:"item_id"`
	Brand        *string        `json:"brand"`
	Model        *string        `json:"model"`
	UnitSerial   *string        `json:"unit_serial"`
	Quantity     balance.Amount `json:"quantity" gorm:"type:numeric"`
	Name         *string        `json:"name"`
}

func (InventoryMovement) TableName() string { return "inventory_inout" }

type Project struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	Name          string  `json:"name" gorm:"not null"`
	Location      *string `json:"location"`
	StationCounts int     `json:"stationcounts" gorm:"column:stationcounts;default:0"`
}
