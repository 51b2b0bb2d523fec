package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deskhub/internal/model"

	"gorm.io/gorm"
)

type CalendarInput struct {
	Title      string         `json:"title"`
	DateFrom   model.NullDate `json:"date_from"`
	DateTo     model.NullDate `json:"date_to"`
	EventTime  string         `json:"event_time"`
	RepeatRule string         `json:"repeat_rule"`
	Username   string         `json:"username"`
	Remarks    string         `json:"remarks"`
}

func validCategory(category string) bool {
	for _, c := range model.CalendarCategories {
		if c == category {
			return true
		}
	}
	return false
}

func validRepeatRule(rule string) bool {
	for _, r := range model.RepeatRules {
		if r == rule {
			return true
		}
	}
	return false
}

func checkCategory(category string) error {
	if !validCategory(category) {
		return invalid("Unknown calendar category %q.", category)
	}
	return nil
}

func (in *CalendarInput) event(category string) (*model.CalendarEvent, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Title is required.")
	}
	if !in.DateFrom.Valid {
		return nil, invalid("Start date is required.")
	}
	if in.DateTo.Valid && in.DateTo.Time.Before(in.DateFrom.Time) {
		return nil, invalid("End date cannot be before start date.")
	}

	var eventTime *string
	if t := strings.TrimSpace(in.EventTime); t != "" {
		if _, err := time.Parse("15:04", t); err != nil {
			return nil, invalid("Time must be HH:MM.")
		}
		eventTime = &t
	}

	rule := strings.ToLower(strings.TrimSpace(in.RepeatRule))
	if rule == "" {
		rule = "none"
	}
	if !validRepeatRule(rule) {
		return nil, invalid("Unknown repeat rule %q.", in.RepeatRule)
	}
	if rule != "none" && category != model.CalendarReports {
		return nil, invalid("Repeat is only available for reports.")
	}

	ev := &model.CalendarEvent{
		Category:   category,
		Title:      title,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
		EventTime:  eventTime,
		RepeatRule: rule,
		Username:   blankToNil(&in.Username),
		Remarks:    blankToNil(&in.Remarks),
	}
	return ev, nil
}

// ListEvents returns a category's events ordered by start date. from and to,
// when set, keep events overlapping that range.
func ListEvents(ctx context.Context, db *gorm.DB, category string, from, to model.NullDate) ([]model.CalendarEvent, error) {
	if err := checkCategory(category); err != nil {
		return nil, err
	}
	q := db.WithContext(ctx).Where("category = ?", category)
	if to.Valid {
		q = q.Where("date_from <= ?", to)
	}
	if from.Valid {
		q = q.Where("((date_to IS NULL AND date_from >= ?) OR date_to >= ?)", from, from)
	}
	events := make([]model.CalendarEvent, 0)
	err := q.Order("date_from").Order("id").Find(&events).Error
	return events, err
}

func CreateEvent(ctx context.Context, db *gorm.DB, category string, in CalendarInput) (*model.CalendarEvent, error) {
	ev, err := in.event(category)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, fmt.Errorf("creating %s event: %w", category, err)
	}
	return ev, nil
}

func UpdateEvent(ctx context.Context, db *gorm.DB, category string, id uint, in CalendarInput) (*model.CalendarEvent, error) {
	ev, err := in.event(category)
	if err != nil {
		return nil, err
	}
	var existing model.CalendarEvent
	if err := findOr404(db.WithContext(ctx).Where("category = ?", category), &existing, id, "Event"); err != nil {
		return nil, err
	}
	ev.ID = id
	ev.CreatedAt = existing.CreatedAt
	if err := db.WithContext(ctx).Save(ev).Error; err != nil {
		return nil, fmt.Errorf("updating %s event %d: %w", category, id, err)
	}
	return ev, nil
}

func DeleteEvent(ctx context.Context, db *gorm.DB, category string, id uint) error {
	if err := checkCategory(category); err != nil {
		return err
	}
	return db.WithContext(ctx).Where("category = ?", category).Delete(&model.CalendarEvent{}, id).Error
}
