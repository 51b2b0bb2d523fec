package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"deskhub/internal/model"

	"gorm.io/gorm"
)

// LogOperation records a mutation in operation_logs. Failures are logged,
// not returned.
func LogOperation(ctx context.Context, db *gorm.DB, actor, action, target, targetID string, details interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("null")
	}
	if actor == "" {
		actor = "system"
	}

	entry := &model.OperationLog{
		Actor:     actor,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   model.JSONText(detailsJSON),
		CreatedAt: time.Now(),
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Printf("Failed to write operation log (%s %s %s): %v", action, target, targetID, err)
	}
}

// GetOperationLogs pages through the log, newest first. A non-empty actor
// restricts the result to that actor's entries.
func GetOperationLogs(ctx context.Context, db *gorm.DB, actor string, page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	q := db.WithContext(ctx).Model(&model.OperationLog{})
	if actor != "" {
		q = q.Where("actor = ?", actor)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// RecordLogin writes one login attempt.
func RecordLogin(ctx context.Context, db *gorm.DB, username, ip, userAgent, status string) {
	entry := &model.LoginLog{
		Username:  username,
		IP:        ip,
		UserAgent: userAgent,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Printf("Failed to write login log for %q: %v", username, err)
	}
}

func GetLoginLogs(ctx context.Context, db *gorm.DB, username string, page, pageSize int) ([]model.LoginLog, int64, error) {
	var logs []model.LoginLog
	var total int64

	q := db.WithContext(ctx).Model(&model.LoginLog{})
	if username != "" {
		q = q.Where("username = ?", username)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
