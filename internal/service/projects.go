package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"deskhub/internal/model"

	"gorm.io/gorm"
)

// LooseInt reads an integer the way a form posts it: a number or a numeric
// prefix of a string. Anything else is 0.
type LooseInt int

func (n *LooseInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	*n = LooseInt(leadingInt(s))
	return nil
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

type ProjectInput struct {
	Name          string   `json:"name"`
	Location      *string  `json:"location"`
	StationCounts LooseInt `json:"stationcounts"`
}

func (in *ProjectInput) project() (*model.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("Project name is required.")
	}
	return &model.Project{
		Name:          strings.TrimSpace(in.Name),
		Location:      in.Location,
		StationCounts: int(in.StationCounts),
	}, nil
}

func ListProjects(ctx context.Context, db *gorm.DB) ([]model.Project, error) {
	projects := make([]model.Project, 0)
	err := db.WithContext(ctx).Order("id DESC").Find(&projects).Error
	return projects, err
}

func CreateProject(ctx context.Context, db *gorm.DB, in ProjectInput) (*model.Project, error) {
	p, err := in.project()
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return p, nil
}

func UpdateProject(ctx context.Context, db *gorm.DB, id uint, in ProjectInput) (*model.Project, error) {
	p, err := in.project()
	if err != nil {
		return nil, err
	}
	db = db.WithContext(ctx)
	var existing model.Project
	if err := findOr404(db, &existing, id, "Project"); err != nil {
		return nil, err
	}
	p.ID = id
	if err := db.Save(p).Error; err != nil {
		return nil, fmt.Errorf("updating project %d: %w", id, err)
	}
	return p, nil
}

func DeleteProject(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Delete(&model.Project{}, id).Error
}
