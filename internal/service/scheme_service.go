package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

// Scheme errors returned to the handler layer.
var ErrSchemeNotFound = errors.New("scheme not found")

// maxEligibilityResults caps the eligibility check output.
const maxEligibilityResults = 20

// SchemeService handles scheme browsing and the eligibility matcher.
type SchemeService struct {
	schemeRepo *repository.SchemeRepository
}

// NewSchemeService creates a SchemeService.
func NewSchemeService(schemeRepo *repository.SchemeRepository) *SchemeService {
	return &SchemeService{schemeRepo: schemeRepo}
}

// SchemeListItem is the compact view used in listings.
type SchemeListItem struct {
	SchemeID       string `json:"scheme_id"`
	SchemeName     string `json:"scheme_name"`
	Slug           string `json:"slug"`
	Level          string `json:"level"`
	SchemeCategory string `json:"scheme_category"`
	State          string `json:"state,omitempty"`
	Benefits       string `json:"benefits,omitempty"`
}

// SchemeListResponse is a paginated listing.
type SchemeListResponse struct {
	Schemes  []*SchemeListItem `json:"schemes"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// SchemeDocumentsResponse is the document checklist of one scheme:
// lines parsed out of the free-text field plus the structured entries.
type SchemeDocumentsResponse struct {
	SchemeName      string                 `json:"scheme_name"`
	SchemeSlug      string                 `json:"scheme_slug"`
	Documents       []string               `json:"documents"`
	DocumentObjects []model.SchemeDocument `json:"document_objects"`
	DocumentsCount  int                    `json:"documents_count"`
}

// EligibilityRequest is the citizen's self-reported criteria. Every
// field is optional; absent fields simply cannot match.
type EligibilityRequest struct {
	Age        *int    `json:"age"`
	Gender     *string `json:"gender"`
	Income     *int    `json:"income"` // annual, INR
	State      *string `json:"state"`
	Category   *string `json:"category"` // social category (sc/st/obc/general)
	Occupation *string `json:"occupation"`
}

// EligibilityMatch is one matched scheme with its confidence score and
// the criteria that matched.
type EligibilityMatch struct {
	Scheme          *SchemeListItem `json:"scheme"`
	Eligible        bool            `json:"eligible"`
	Confidence      float64         `json:"confidence"`
	Matches         []string        `json:"matches"`
	EligibilityText string          `json:"eligibility_text"`
}

// EligibilityResponse is the full eligibility check result.
type EligibilityResponse struct {
	EligibleSchemes []*EligibilityMatch `json:"eligible_schemes"`
	TotalFound      int                 `json:"total_found"`
}

// CategoryStat is one row of the statistics endpoint.
type CategoryStat struct {
	Category        string `json:"category"`
	CategoryDisplay string `json:"category_display"`
	Count           int64  `json:"count"`
}

// SchemeStatsResponse is the statistics overview.
type SchemeStatsResponse struct {
	TotalSchemes   int64          `json:"total_schemes"`
	ActiveSchemes  int64          `json:"active_schemes"`
	CentralSchemes int64          `json:"central_schemes"`
	StateSchemes   int64          `json:"state_schemes"`
	Categories     []CategoryStat `json:"categories"`
}

// FilterOption is one value/label pair of the filter metadata endpoint.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SchemeFiltersResponse lists the filterable values for scheme search.
type SchemeFiltersResponse struct {
	Categories []FilterOption `json:"categories"`
	Levels     []FilterOption `json:"levels"`
	States     []string       `json:"states"`
}

func toSchemeListItem(scheme *model.Scheme) *SchemeListItem {
	return &SchemeListItem{
		SchemeID:       scheme.SchemeID,
		SchemeName:     scheme.SchemeName,
		Slug:           scheme.Slug,
		Level:          scheme.Level,
		SchemeCategory: scheme.SchemeCategory,
		State:          scheme.State,
		Benefits:       util.TruncateString(scheme.Benefits, 300),
	}
}

// List returns a filtered, paginated scheme listing.
func (s *SchemeService) List(ctx context.Context, filter repository.SchemeFilter, page, pageSize int) (*SchemeListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	schemes, total, err := s.schemeRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*SchemeListItem, 0, len(schemes))
	for i := range schemes {
		items = append(items, toSchemeListItem(&schemes[i]))
	}
	return &SchemeListResponse{
		Schemes:  items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Detail returns one scheme by slug, with its structured documents.
func (s *SchemeService) Detail(ctx context.Context, slug string) (*model.Scheme, error) {
	scheme, err := s.schemeRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if scheme == nil {
		return nil, ErrSchemeNotFound
	}
	return scheme, nil
}

// Documents returns the document checklist of a scheme.
func (s *SchemeService) Documents(ctx context.Context, slug string) (*SchemeDocumentsResponse, error) {
	scheme, err := s.schemeRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if scheme == nil {
		return nil, ErrSchemeNotFound
	}

	docs := parseDocumentsList(scheme.Documents)
	return &SchemeDocumentsResponse{
		SchemeName:      scheme.SchemeName,
		SchemeSlug:      scheme.Slug,
		Documents:       docs,
		DocumentObjects: scheme.RequiredDocuments,
		DocumentsCount:  len(docs) + len(scheme.RequiredDocuments),
	}, nil
}

// parseDocumentsList splits the free-text documents field into entries.
// The first separator actually present wins; fragments of three
// characters or fewer are noise from the split and dropped.
func parseDocumentsList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	var parts []string
	for _, sep := range []string{"\n", "•", "-", "*", "1.", "2.", "3.", "4.", "5."} {
		if strings.Contains(text, sep) {
			parts = strings.Split(text, sep)
			break
		}
	}
	if parts == nil {
		parts = []string{text}
	}

	docs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 3 {
			docs = append(docs, p)
		}
	}
	return docs
}

// Stats returns the statistics overview.
func (s *SchemeService) Stats(ctx context.Context) (*SchemeStatsResponse, error) {
	total, active, err := s.schemeRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	central, err := s.schemeRepo.CountByLevel(ctx, model.SchemeLevelCentral)
	if err != nil {
		return nil, err
	}
	state, err := s.schemeRepo.CountByLevel(ctx, model.SchemeLevelState)
	if err != nil {
		return nil, err
	}

	categories := make([]CategoryStat, 0, len(model.SchemeCategories))
	for _, cat := range model.SchemeCategories {
		count, err := s.schemeRepo.CountByCategory(ctx, cat.Value)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			categories = append(categories, CategoryStat{
				Category:        cat.Value,
				CategoryDisplay: cat.Label,
				Count:           count,
			})
		}
	}

	return &SchemeStatsResponse{
		TotalSchemes:   total,
		ActiveSchemes:  active,
		CentralSchemes: central,
		StateSchemes:   state,
		Categories:     categories,
	}, nil
}

// Filters returns the filter metadata for the scheme search UI.
func (s *SchemeService) Filters(ctx context.Context) (*SchemeFiltersResponse, error) {
	states, err := s.schemeRepo.DistinctStates(ctx)
	if err != nil {
		return nil, err
	}

	categories := make([]FilterOption, 0, len(model.SchemeCategories))
	for _, c := range model.SchemeCategories {
		categories = append(categories, FilterOption{Value: c.Value, Label: c.Label})
	}
	levels := make([]FilterOption, 0, len(model.SchemeLevels))
	for _, l := range model.SchemeLevels {
		levels = append(levels, FilterOption{Value: l.Value, Label: l.Label})
	}

	return &SchemeFiltersResponse{
		Categories: categories,
		Levels:     levels,
		States:     states,
	}, nil
}

// CheckEligibility walks the active schemes (state-level ones filtered
// to the citizen's state, central ones always included) and scores each
// against the self-reported criteria. Results come back sorted by
// confidence, capped at maxEligibilityResults.
func (s *SchemeService) CheckEligibility(ctx context.Context, req *EligibilityRequest) (*EligibilityResponse, error) {
	state := ""
	if req.State != nil {
		state = *req.State
	}
	schemes, err := s.schemeRepo.ListActive(ctx, state)
	if err != nil {
		return nil, err
	}

	matches := make([]*EligibilityMatch, 0)
	for i := range schemes {
		if m := matchScheme(&schemes[i], req); m != nil {
			matches = append(matches, m)
		}
	}

	// Stable sort by confidence, descending. Equal scores keep the
	// repository's name ordering.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Confidence > matches[j-1].Confidence; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	if len(matches) > maxEligibilityResults {
		matches = matches[:maxEligibilityResults]
	}

	return &EligibilityResponse{
		EligibleSchemes: matches,
		TotalFound:      len(matches),
	}, nil
}

var ageRangePattern = regexp.MustCompile(`between (\d+) and (\d+)`)

// matchScheme scores one scheme against the criteria. Each matched
// criterion adds 0.3 confidence, capped at 1.0. With no specific match,
// broadly-worded eligibility text ("all citizens", "any resident")
// still yields one weak match. Returns nil when nothing matches or the
// scheme has no eligibility text at all.
func matchScheme(scheme *model.Scheme, req *EligibilityRequest) *EligibilityMatch {
	if strings.TrimSpace(scheme.Eligibility) == "" {
		return nil
	}
	text := strings.ToLower(scheme.Eligibility)
	var matches []string

	if req.Age != nil {
		age := *req.Age
		if strings.Contains(text, "below 18") && age < 18 {
			matches = append(matches, "Age criteria met (below 18)")
		} else if strings.Contains(text, "above 60") && age > 60 {
			matches = append(matches, "Age criteria met (senior citizen)")
		} else if m := ageRangePattern.FindStringSubmatch(text); m != nil {
			minAge, _ := strconv.Atoi(m[1])
			maxAge, _ := strconv.Atoi(m[2])
			if minAge <= age && age <= maxAge {
				matches = append(matches, fmt.Sprintf("Age criteria met (%d-%d years)", minAge, maxAge))
			}
		}
	}

	if req.Gender != nil {
		gender := strings.ToLower(*req.Gender)
		if gender != "" && strings.Contains(text, gender) {
			matches = append(matches, fmt.Sprintf("Gender criteria met (%s)", gender))
		}
	}

	if req.Income != nil {
		income := *req.Income
		if strings.Contains(text, "below poverty line") || strings.Contains(text, "bpl") {
			if income < 100000 {
				matches = append(matches, "Income criteria met (BPL)")
			}
		} else if strings.Contains(text, "low income") && income < 300000 {
			matches = append(matches, "Income criteria met (low income)")
		}
	}

	if req.State != nil && scheme.State != "" {
		if strings.Contains(strings.ToLower(scheme.State), strings.ToLower(*req.State)) {
			matches = append(matches, fmt.Sprintf("State criteria met (%s)", scheme.State))
		}
	}

	if req.Category != nil {
		category := strings.ToLower(*req.Category)
		if category != "" && strings.Contains(text, category) {
			matches = append(matches, fmt.Sprintf("Category criteria met (%s)", category))
		}
	}

	if req.Occupation != nil {
		occupation := strings.ToLower(*req.Occupation)
		if occupation != "" && strings.Contains(text, occupation) {
			matches = append(matches, fmt.Sprintf("Occupation criteria met (%s)", occupation))
		}
	}

	if len(matches) == 0 {
		for _, keyword := range []string{"citizen", "resident", "indian", "all", "eligible"} {
			if strings.Contains(text, keyword) {
				matches = append(matches, "General eligibility criteria may apply")
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}

	confidence := float64(len(matches)) * 0.3
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &EligibilityMatch{
		Scheme:          toSchemeListItem(scheme),
		Eligible:        true,
		Confidence:      confidence,
		Matches:         matches,
		EligibilityText: scheme.Eligibility,
	}
}

// CreateScheme imports one scheme record, generating the public id,
// a unique slug and the search keyword bag.
func (s *SchemeService) CreateScheme(ctx context.Context, scheme *model.Scheme) error {
	if scheme.SchemeID == "" {
		scheme.SchemeID = util.GenerateUUID()
	}
	if scheme.Slug == "" {
		slug, err := s.uniqueSlug(ctx, scheme.SchemeName)
		if err != nil {
			return err
		}
		scheme.Slug = slug
	}
	if scheme.SearchKeywords == "" {
		scheme.SearchKeywords = buildSearchKeywords(scheme)
	}
	return s.schemeRepo.Create(ctx, scheme)
}

// uniqueSlug slugifies the name, appending a counter on collision.
func (s *SchemeService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := util.Slugify(name)
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.schemeRepo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// buildSearchKeywords denormalises name, details and benefits into a
// deduplicated keyword bag. Words of three characters or fewer are
// dropped except from the name itself.
func buildSearchKeywords(scheme *model.Scheme) string {
	seen := make(map[string]struct{})
	var keywords []string
	add := func(word string) {
		if _, ok := seen[word]; !ok {
			seen[word] = struct{}{}
			keywords = append(keywords, word)
		}
	}

	for _, w := range strings.Fields(strings.ToLower(scheme.SchemeName)) {
		add(w)
	}
	for _, text := range []string{scheme.Details, scheme.Benefits} {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			if len(w) > 3 {
				add(w)
			}
		}
	}
	return strings.Join(keywords, " ")
}
