package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deskhub/internal/model"

	"gorm.io/gorm"
)

func orSystem(by string) string {
	if strings.TrimSpace(by) == "" {
		return "system"
	}
	return by
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func findOr404(db *gorm.DB, dest interface{}, id uint, what string) error {
	err := db.First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}

// Items

type ItemInput struct {
	Name      string `json:"name"`
	Remarks   string `json:"remarks"`
	UpdatedBy string `json:"last_updated_by"`
}

func ListItems(ctx context.Context, db *gorm.DB) ([]model.Item, error) {
	items := make([]model.Item, 0)
	err := db.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

func CreateItem(ctx context.Context, db *gorm.DB, in ItemInput) (*model.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("Name is required")
	}
	item := &model.Item{Name: strings.TrimSpace(in.Name), Remarks: in.Remarks, LastUpdatedBy: orSystem(in.UpdatedBy)}
	if err := db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	return item, nil
}

func UpdateItem(ctx context.Context, db *gorm.DB, id uint, in ItemInput) (*model.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("Name is required")
	}
	db = db.WithContext(ctx)
	var item model.Item
	if err := findOr404(db, &item, id, "Item"); err != nil {
		return nil, err
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Remarks = in.Remarks
	item.LastUpdatedBy = orSystem(in.UpdatedBy)
	if err := db.Save(&item).Error; err != nil {
		return nil, fmt.Errorf("updating item %d: %w", id, err)
	}
	return &item, nil
}

// DeleteItem removes the item only; its models are left in place and list
// with a null item_name.
func DeleteItem(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&model.Item{}, id).Error
}

// Models

type ModelInput struct {
	ItemID         uint   `json:"item_id"`
	ModelName      string `json:"model_name"`
	Remarks        string `json:"remarks"`
	ModelsRemarks1 string `json:"models_remarks1"`
	UpdatedBy      string `json:"updated_by"`
}

// ModelOption is a model in an item's dropdown.
type ModelOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func ListModels(ctx context.Context, db *gorm.DB) ([]model.ModelView, error) {
	views := make([]model.ModelView, 0)
	err := db.WithContext(ctx).Raw(`SELECT m.*, m.model_name AS name, i.name AS item_name
		FROM models m
		LEFT JOIN items i ON i.id = m.item_id
		ORDER BY m.id`).Scan(&views).Error
	return views, err
}

func ModelsByItem(ctx context.Context, db *gorm.DB, itemID uint) ([]ModelOption, error) {
	opts := make([]ModelOption, 0)
	err := db.WithContext(ctx).Model(&model.EquipmentModel{}).
		Select("id, model_name AS name").
		Where("item_id = ?", itemID).
		Order("model_name").
		Scan(&opts).Error
	return opts, err
}

func (in *ModelInput) validate(ctx context.Context, db *gorm.DB, self uint) error {
	in.ModelName = strings.TrimSpace(in.ModelName)
	if in.ItemID == 0 || in.ModelName == "" {
		return invalid("Item and Model are required")
	}
	var n int64
	err := db.WithContext(ctx).Model(&model.EquipmentModel{}).
		Where("LOWER(model_name) = LOWER(?) AND id <> ?", in.ModelName, self).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return conflict("Model %q already exists.", in.ModelName)
	}
	return nil
}

func CreateModel(ctx context.Context, db *gorm.DB, in ModelInput) (*model.EquipmentModel, error) {
	if err := in.validate(ctx, db, 0); err != nil {
		return nil, err
	}
	m := &model.EquipmentModel{
		ItemID:         in.ItemID,
		ModelName:      in.ModelName,
		Remarks:        in.Remarks,
		ModelsRemarks1: in.ModelsRemarks1,
		UpdatedBy:      orSystem(in.UpdatedBy),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("creating model: %w", err)
	}
	return m, nil
}

func UpdateModel(ctx context.Context, db *gorm.DB, id uint, in ModelInput) (*model.EquipmentModel, error) {
	db = db.WithContext(ctx)
	var m model.EquipmentModel
	if err := findOr404(db, &m, id, "Model"); err != nil {
		return nil, err
	}
	if err := in.validate(ctx, db, id); err != nil {
		return nil, err
	}
	m.ItemID = in.ItemID
	m.ModelName = in.ModelName
	m.Remarks = in.Remarks
	m.ModelsRemarks1 = in.ModelsRemarks1
	m.UpdatedBy = orSystem(in.UpdatedBy)
	if err := db.Save(&m).Error; err != nil {
		return nil, fmt.Errorf("updating model %d: %w", id, err)
	}
	return &m, nil
}

func DeleteModel(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&model.EquipmentModel{}, id).Error
}

// Units

const unitSelect = `SELECT u.*, i.name AS item_name, m.model_name AS model_name
	FROM units u
	LEFT JOIN items i ON u.item_id = i.id
	LEFT JOIN models m ON u.model_id = m.id`

func ListUnits(ctx context.Context, db *gorm.DB) ([]model.UnitView, error) {
	units := make([]model.UnitView, 0)
	err := db.WithContext(ctx).Raw(unitSelect + " ORDER BY u.id DESC").Scan(&units).Error
	return units, err
}

func GetUnit(ctx context.Context, db *gorm.DB, id uint) (*model.UnitView, error) {
	var units []model.UnitView
	if err := db.WithContext(ctx).Raw(unitSelect+" WHERE u.id = ?", id).Scan(&units).Error; err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, notFound("Unit")
	}
	return &units[0], nil
}

func serialTaken(ctx context.Context, db *gorm.DB, serial *string, self uint) (bool, error) {
	if serial == nil {
		return false, nil
	}
	var n int64
	err := db.WithContext(ctx).Model(&model.Unit{}).
		Where("serial_number = ? AND id <> ?", *serial, self).
		Count(&n).Error
	return n > 0, err
}

func saveUnit(ctx context.Context, db *gorm.DB, u *model.Unit) (*model.UnitView, error) {
	u.SerialNumber = blankToNil(u.SerialNumber)
	u.LastUpdatedBy = orSystem(u.LastUpdatedBy)

	taken, err := serialTaken(ctx, db, u.SerialNumber, u.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("Serial number %q already exists.", *u.SerialNumber)
	}
	if err := db.WithContext(ctx).Save(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("Serial number %q already exists.", *u.SerialNumber)
		}
		return nil, fmt.Errorf("saving unit: %w", err)
	}
	return GetUnit(ctx, db, u.ID)
}

func CreateUnit(ctx context.Context, db *gorm.DB, u model.Unit) (*model.UnitView, error) {
	u.ID = 0
	return saveUnit(ctx, db, &u)
}

func UpdateUnit(ctx context.Context, db *gorm.DB, id uint, u model.Unit) (*model.UnitView, error) {
	var existing model.Unit
	if err := findOr404(db.WithContext(ctx), &existing, id, "Unit"); err != nil {
		return nil, err
	}
	u.ID = id
	return saveUnit(ctx, db, &u)
}

func DeleteUnit(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&model.Unit{}, id).Error
}

// Inventory movements

func normalizeMovement(mv *model.InventoryMovement) error {
	switch strings.ToLower(strings.TrimSpace(mv.Inventory)) {
	case "in":
		mv.Inventory = model.MovementIn
	case "out":
		mv.Inventory = model.MovementOut
	case "":
		return invalid("Inventory (In/Out) is required.")
	default:
		return invalid("Inventory must be In or Out.")
	}
	mv.InvTime = blankToNil(mv.InvTime)
	mv.FromLocation = blankToNil(mv.FromLocation)
	mv.ToLocation = blankToNil(mv.ToLocation)
	mv.Brand = blankToNil(mv.Brand)
	mv.Model = blankToNil(mv.Model)
	mv.UnitSerial = blankToNil(mv.UnitSerial)
	mv.Name = blankToNil(mv.Name)
	return nil
}

func ListMovements(ctx context.Context, db *gorm.DB) ([]model.InventoryMovement, error) {
	moves := make([]model.InventoryMovement, 0)
	err := db.WithContext(ctx).Order("id DESC").Find(&moves).Error
	return moves, err
}

func CreateMovement(ctx context.Context, db *gorm.DB, mv model.InventoryMovement) (*model.InventoryMovement, error) {
	if err := normalizeMovement(&mv); err != nil {
		return nil, err
	}
	mv.ID = 0
	if err := db.WithContext(ctx).Create(&mv).Error; err != nil {
		return nil, fmt.Errorf("creating inventory movement: %w", err)
	}
	return &mv, nil
}

func UpdateMovement(ctx context.Context, db *gorm.DB, id uint, mv model.InventoryMovement) (*model.InventoryMovement, error) {
	if err := normalizeMovement(&mv); err != nil {
		return nil, err
	}
	db = db.WithContext(ctx)
	var existing model.InventoryMovement
	if err := findOr404(db, &existing, id, "Inventory record"); err != nil {
		return nil, err
	}
	mv.ID = id
	if err := db.Save(&mv).Error; err != nil {
		return nil, fmt.Errorf("updating inventory movement %d: %w", id, err)
	}
	return &mv, nil
}

func DeleteMovement(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&model.InventoryMovement{}, id).Error
}
