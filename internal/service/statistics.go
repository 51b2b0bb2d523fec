package service

import (
	"context"
	"fmt"
	"time"

	"deskhub/internal/model"

	"gorm.io/gorm"
)

const loginHistoryDays = 14

type groupCount struct {
	Name  string
	Count int64
}

func countBy(db *gorm.DB, column string) (map[string]int64, error) {
	var rows []groupCount
	err := db.Model(&model.FormRecord{}).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Count
	}
	return out, nil
}

// GetStatistics summarises inventory, calibration deadlines, forms and
// recent logins as of now.
func GetStatistics(ctx context.Context, db *gorm.DB, users *UserStore, windowDays int, now time.Time) (*model.Statistics, error) {
	db = db.WithContext(ctx)
	stats := &model.Statistics{CalibrationWindowDays: windowDays, GeneratedAt: now}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&model.Item{}, &stats.Items},
		{&model.EquipmentModel{}, &stats.Models},
		{&model.Unit{}, &stats.Units},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("counting rows: %w", err)
		}
	}

	n, err := users.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats.Users = n

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today := model.NullDate{NullTime: model.NullTime{Time: midnight, Valid: true}}
	horizon := model.NullDate{NullTime: model.NullTime{Time: today.Time.AddDate(0, 0, windowDays), Valid: true}}
	if err := db.Model(&model.Unit{}).
		Where("next_calibration >= ? AND next_calibration <= ?", today, horizon).
		Count(&stats.CalibrationDue).Error; err != nil {
		return nil, fmt.Errorf("counting calibrations due: %w", err)
	}
	if err := db.Model(&model.Unit{}).
		Where("next_calibration < ?", today).
		Count(&stats.CalibrationOverdue).Error; err != nil {
		return nil, fmt.Errorf("counting overdue calibrations: %w", err)
	}

	if stats.FormsByType, err = countBy(db, "form_type"); err != nil {
		return nil, fmt.Errorf("counting forms by type: %w", err)
	}
	if stats.FormsByStatus, err = countBy(db, "status"); err != nil {
		return nil, fmt.Errorf("counting forms by status: %w", err)
	}

	stats.DailyLogins = make([]model.DailyLogins, 0)
	err = db.Model(&model.LoginLog{}).
		Select(`DATE(created_at) AS date,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS successes,
			SUM(CASE WHEN status <> 'success' THEN 1 ELSE 0 END) AS failures`).
		Where("created_at >= ?", now.AddDate(0, 0, -loginHistoryDays)).
		Group("DATE(created_at)").
		Order("date").
		Scan(&stats.DailyLogins).Error
	if err != nil {
		return nil, fmt.Errorf("summarising logins: %w", err)
	}

	return stats, nil
}
