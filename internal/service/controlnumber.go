package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"deskhub/internal/model"

	"gorm.io/gorm"
)

// DefaultFormType is used when a submission names no form type.
const DefaultFormType = "form"

var formCodes = map[string]string{
	"night_access": "NAF",
	"leave":        "LVF",
	"overtime":     "OTF",
	"time_off":     "TOF",
	"mc_form":      "MCF",
}

// FormCode maps a form type to its control number prefix; unknown types get FM.
func FormCode(formType string) string {
	if code, ok := formCodes[formType]; ok {
		return code
	}
	return "FM"
}

// FormTitle is the heading printed on a rendered form.
func FormTitle(formType string) string {
	switch formType {
	case "night_access":
		return "Night Access Form"
	case "leave":
		return "Leave Application Form"
	case "overtime":
		return "Overtime Claim Form"
	case "time_off":
		return "Time Off Form"
	case "mc_form":
		return "Medical Certificate Form"
	default:
		return "Request Form"
	}
}

// NextControlNumber returns {CODE}_{username}_{NNN}, one past the highest
// sequence already stored for this user and form type. A blank username
// yields "" and no error.
func NextControlNumber(ctx context.Context, db *gorm.DB, formType, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", nil
	}
	if formType == "" {
		formType = DefaultFormType
	}

	var existing []string
	err := db.WithContext(ctx).Model(&model.FormRecord{}).
		Where("LOWER(username) = LOWER(?) AND form_type = ? AND control_number <> ''", username, formType).
		Pluck("control_number", &existing).Error
	if err != nil {
		return "", fmt.Errorf("scanning control numbers: %w", err)
	}

	code := FormCode(formType)
	return fmt.Sprintf("%s_%s_%03d", code, username, maxSequence(existing, code+"_"+username+"_")+1), nil
}

// maxSequence returns the largest numeric suffix among numbers that start
// with prefix (case-insensitive), or 0.
func maxSequence(numbers []string, prefix string) int {
	prefix = strings.ToLower(prefix)
	max := 0
	for _, n := range numbers {
		lower := strings.ToLower(n)
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		seq, err := strconv.Atoi(lower[len(prefix):])
		if err != nil || seq < 0 {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// FileStem turns a control number into a safe file name stem.
func FileStem(controlNumber string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(controlNumber), "_"), "_")
}
