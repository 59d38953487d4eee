// Package model defines the structs mapped to database tables.
package model

import (
	"time"
)

// Scheme category constants (schemes.scheme_category).
const (
	SchemeCategoryAgriculture        = "agriculture"
	SchemeCategoryEducation          = "education"
	SchemeCategoryHealthcare         = "healthcare"
	SchemeCategoryEmployment         = "employment"
	SchemeCategoryWomenChild         = "women_child"
	SchemeCategoryRuralDevelopment   = "rural_development"
	SchemeCategoryHousing            = "housing"
	SchemeCategoryFinancialInclusion = "financial_inclusion"
	SchemeCategoryDisability         = "disability"
	SchemeCategoryElderly            = "elderly"
	SchemeCategoryMinority           = "minority"
	SchemeCategoryTribal             = "tribal"
	SchemeCategorySkillDevelopment   = "skill_development"
	SchemeCategoryEnvironment        = "environment"
	SchemeCategoryTransport          = "transport"
	SchemeCategorySocialWelfare      = "social_welfare"
	SchemeCategoryOther              = "other"
)

// Government level constants (schemes.level).
const (
	SchemeLevelCentral   = "central"
	SchemeLevelState     = "state"
	SchemeLevelDistrict  = "district"
	SchemeLevelBlock     = "block"
	SchemeLevelPanchayat = "panchayat"
)

// SchemeCategories lists every valid category with its display label,
// in the order the filter endpoint returns them.
var SchemeCategories = []struct {
	Value string
	Label string
}{
	{SchemeCategoryAgriculture, "Agriculture"},
	{SchemeCategoryEducation, "Education"},
	{SchemeCategoryHealthcare, "Healthcare"},
	{SchemeCategoryEmployment, "Employment"},
	{SchemeCategoryWomenChild, "Women & Child Development"},
	{SchemeCategoryRuralDevelopment, "Rural Development"},
	{SchemeCategoryHousing, "Housing"},
	{SchemeCategoryFinancialInclusion, "Financial Inclusion"},
	{SchemeCategoryDisability, "Disability Welfare"},
	{SchemeCategoryElderly, "Elderly Welfare"},
	{SchemeCategoryMinority, "Minority Affairs"},
	{SchemeCategoryTribal, "Tribal Affairs"},
	{SchemeCategorySkillDevelopment, "Skill Development"},
	{SchemeCategoryEnvironment, "Environment"},
	{SchemeCategoryTransport, "Transport"},
	{SchemeCategorySocialWelfare, "Social Welfare"},
	{SchemeCategoryOther, "Other"},
}

// SchemeLevels lists every valid government level with its display label.
var SchemeLevels = []struct {
	Value string
	Label string
}{
	{SchemeLevelCentral, "Central Government"},
	{SchemeLevelState, "State Government"},
	{SchemeLevelDistrict, "District Level"},
	{SchemeLevelBlock, "Block Level"},
	{SchemeLevelPanchayat, "Panchayat Level"},
}

// Scheme is a government scheme record browsable by citizens.
type Scheme struct {
	ID int64 `gorm:"primaryKey" json:"-"`

	// SchemeID is the public identifier (UUID).
	SchemeID string `gorm:"size:64;uniqueIndex;not null" json:"scheme_id"`

	SchemeName string `gorm:"size:500;not null" json:"scheme_name"`

	// Slug is the URL-friendly name, auto-generated and unique.
	Slug string `gorm:"size:200;uniqueIndex;not null" json:"slug"`

	// Free-text content fields imported from the scheme catalogue.
	Details     string `gorm:"type:text" json:"details,omitempty"`
	Benefits    string `gorm:"type:text" json:"benefits,omitempty"`
	Eligibility string `gorm:"type:text" json:"eligibility,omitempty"`
	Application string `gorm:"type:text" json:"application,omitempty"`
	Documents   string `gorm:"type:text" json:"documents,omitempty"`

	Level          string `gorm:"size:20;default:central;index" json:"level"`
	SchemeCategory string `gorm:"size:30;default:other;index" json:"scheme_category"`

	// State is set only for state-level schemes.
	State              string     `gorm:"size:100;index" json:"state,omitempty"`
	MinistryDepartment string     `gorm:"size:200" json:"ministry_department,omitempty"`
	LaunchDate         *time.Time `json:"launch_date,omitempty"`
	WebsiteURL         string     `gorm:"size:500" json:"website_url,omitempty"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	// SearchKeywords is a denormalised keyword bag built at import time
	// from the name, details and benefits, used by the search filter.
	SearchKeywords string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// RequiredDocuments are structured per-scheme document entries,
	// complementing the free-text Documents field.
	RequiredDocuments []SchemeDocument `gorm:"foreignKey:SchemeID;references:ID" json:"required_documents,omitempty"`
}

// TableName overrides GORM's default pluralisation.
func (Scheme) TableName() string {
	return "schemes"
}

// SchemeDocument is a single document requirement of a scheme.
type SchemeDocument struct {
	ID       int64 `gorm:"primaryKey" json:"-"`
	SchemeID int64 `gorm:"index;not null;uniqueIndex:idx_scheme_doc" json:"-"`

	DocumentName string `gorm:"size:200;not null;uniqueIndex:idx_scheme_doc" json:"document_name"`

	// DocumentType is one of the DocCategory* constants.
	DocumentType string `gorm:"size:50;default:other" json:"document_type"`

	IsMandatory bool   `gorm:"default:true" json:"is_mandatory"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

// TableName overrides GORM's default pluralisation.
func (SchemeDocument) TableName() string {
	return "scheme_documents"
}
