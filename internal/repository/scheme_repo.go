// Package repository provides the data access layer.
package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"agsa-server/internal/model"
)

// SchemeFilter narrows a scheme listing. Zero values mean "no filter".
type SchemeFilter struct {
	Level    string
	Category string
	State    string
	Search   string // matched against name, details, benefits, keywords
}

// SchemeRepository handles all database operations for schemes.
type SchemeRepository struct {
	db *gorm.DB
}

// NewSchemeRepository creates a SchemeRepository.
func NewSchemeRepository(db *gorm.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

// Create inserts a new scheme with its required-document rows.
func (r *SchemeRepository) Create(ctx context.Context, scheme *model.Scheme) error {
	return r.db.WithContext(ctx).Create(scheme).Error
}

// GetBySlug returns a scheme with its required documents, or nil.
func (r *SchemeRepository) GetBySlug(ctx context.Context, slug string) (*model.Scheme, error) {
	var scheme model.Scheme
	err := r.db.WithContext(ctx).
		Preload("RequiredDocuments").
		Where("slug = ?", slug).
		First(&scheme).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &scheme, nil
}

// SlugExists reports whether a slug is already taken.
func (r *SchemeRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Scheme{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

// List returns active schemes matching the filter, paginated, with the
// total match count for pagination headers.
func (r *SchemeRepository) List(ctx context.Context, filter SchemeFilter, page, pageSize int) ([]model.Scheme, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Scheme{}).Where("is_active = ?", true)

	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.Category != "" {
		query = query.Where("scheme_category = ?", filter.Category)
	}
	if filter.State != "" {
		query = query.Where("state LIKE ?", "%"+filter.State+"%")
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(scheme_name) LIKE ? OR LOWER(details) LIKE ? OR LOWER(benefits) LIKE ? OR LOWER(search_keywords) LIKE ?",
			term, term, term, term,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var schemes []model.Scheme
	offset := (page - 1) * pageSize
	err := query.
		Order("scheme_name ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&schemes).Error

	return schemes, total, err
}

// ListActive returns every active scheme; the eligibility checker walks
// all of them. State-level schemes outside the given state are excluded
// when state is non-empty (central schemes always qualify).
func (r *SchemeRepository) ListActive(ctx context.Context, state string) ([]model.Scheme, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if state != "" {
		query = query.Where("level = ? OR state LIKE ?", model.SchemeLevelCentral, "%"+state+"%")
	}

	var schemes []model.Scheme
	err := query.Order("scheme_name ASC").Find(&schemes).Error
	return schemes, err
}

// CountByLevel returns the number of active schemes at a level.
func (r *SchemeRepository) CountByLevel(ctx context.Context, level string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Scheme{}).
		Where("level = ?", level).
		Count(&count).Error
	return count, err
}

// Counts returns (total, active) scheme counts.
func (r *SchemeRepository) Counts(ctx context.Context) (int64, int64, error) {
	var total, active int64
	if err := r.db.WithContext(ctx).Model(&model.Scheme{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err := r.db.WithContext(ctx).
		Model(&model.Scheme{}).
		Where("is_active = ?", true).
		Count(&active).Error
	return total, active, err
}

// CountByCategory returns the number of active schemes in a category.
func (r *SchemeRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Scheme{}).
		Where("scheme_category = ? AND is_active = ?", category, true).
		Count(&count).Error
	return count, err
}

// DistinctStates returns the ordered set of states named by schemes.
func (r *SchemeRepository) DistinctStates(ctx context.Context) ([]string, error) {
	var states []string
	err := r.db.WithContext(ctx).
		Model(&model.Scheme{}).
		Where("state IS NOT NULL AND state <> ''").
		Distinct("state").
		Order("state ASC").
		Pluck("state", &states).Error
	return states, err
}
