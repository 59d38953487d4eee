package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agsa-server/internal/model"
	"agsa-server/internal/repository"
	"agsa-server/pkg/util"
)

func newTestSchemeService(t *testing.T) *SchemeService {
	t.Helper()
	db := testDB(t)
	return NewSchemeService(repository.NewSchemeRepository(db))
}

func seedScheme(t *testing.T, svc *SchemeService, scheme *model.Scheme) *model.Scheme {
	t.Helper()
	scheme.IsActive = true
	require.NoError(t, svc.CreateScheme(context.Background(), scheme))
	return scheme
}

func TestCreateSchemeGeneratesUniqueSlugs(t *testing.T) {
	svc := newTestSchemeService(t)

	first := seedScheme(t, svc, &model.Scheme{SchemeName: "PM Awas Yojana"})
	second := seedScheme(t, svc, &model.Scheme{SchemeName: "PM Awas Yojana"})
	third := seedScheme(t, svc, &model.Scheme{SchemeName: "PM Awas Yojana"})

	assert.Equal(t, "pm-awas-yojana", first.Slug)
	assert.Equal(t, "pm-awas-yojana-1", second.Slug)
	assert.Equal(t, "pm-awas-yojana-2", third.Slug)
	assert.NotEmpty(t, first.SchemeID)
	assert.NotEmpty(t, first.SearchKeywords)
}

func TestEligibilityAgeMatching(t *testing.T) {
	svc := newTestSchemeService(t)

	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "Senior Pension",
		Eligibility: "Persons above 60 years of age",
	})
	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "Youth Skill Programme",
		Eligibility: "Applicants between 18 and 35 years",
	})
	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "Child Nutrition",
		Eligibility: "Children below 18 years",
	})

	result, err := svc.CheckEligibility(context.Background(), &EligibilityRequest{Age: intPtr(65)})
	require.NoError(t, err)
	require.Len(t, result.EligibleSchemes, 1)
	assert.Equal(t, "Senior Pension", result.EligibleSchemes[0].Scheme.SchemeName)
	assert.InDelta(t, 0.3, result.EligibleSchemes[0].Confidence, 1e-9)

	result, err = svc.CheckEligibility(context.Background(), &EligibilityRequest{Age: intPtr(25)})
	require.NoError(t, err)
	require.Len(t, result.EligibleSchemes, 1)
	assert.Equal(t, "Youth Skill Programme", result.EligibleSchemes[0].Scheme.SchemeName)
}

func TestEligibilityConfidenceAccumulatesAndSorts(t *testing.T) {
	svc := newTestSchemeService(t)

	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "Women Farmer Support",
		Eligibility: "Female farmers between 18 and 60 years with low income",
	})
	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "General Welfare",
		Eligibility: "All Indian citizens",
	})

	result, err := svc.CheckEligibility(context.Background(), &EligibilityRequest{
		Age:        intPtr(30),
		Gender:     strPtr("female"),
		Income:     intPtr(200000),
		Occupation: strPtr("farmer"),
	})
	require.NoError(t, err)
	require.Len(t, result.EligibleSchemes, 2)

	// Four criteria match the first scheme: 4 * 0.3 capped at 1.0.
	top := result.EligibleSchemes[0]
	assert.Equal(t, "Women Farmer Support", top.Scheme.SchemeName)
	assert.InDelta(t, 1.0, top.Confidence, 1e-9)
	assert.Len(t, top.Matches, 4)

	// The general fallback scores a single weak match and sorts last.
	assert.Equal(t, "General Welfare", result.EligibleSchemes[1].Scheme.SchemeName)
	assert.InDelta(t, 0.3, result.EligibleSchemes[1].Confidence, 1e-9)
}

func TestEligibilityIncomeBPL(t *testing.T) {
	svc := newTestSchemeService(t)

	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "BPL Ration Support",
		Eligibility: "Families below poverty line (BPL)",
	})

	result, err := svc.CheckEligibility(context.Background(), &EligibilityRequest{Income: intPtr(90000)})
	require.NoError(t, err)
	require.Len(t, result.EligibleSchemes, 1)

	result, err = svc.CheckEligibility(context.Background(), &EligibilityRequest{Income: intPtr(150000)})
	require.NoError(t, err)
	assert.Empty(t, result.EligibleSchemes)
}

func TestEligibilityStateFiltering(t *testing.T) {
	svc := newTestSchemeService(t)

	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "Karnataka Farmer Relief",
		Eligibility: "Resident farmers of the state",
		Level:       model.SchemeLevelState,
		State:       "Karnataka",
	})
	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "Kerala Fishermen Fund",
		Eligibility: "Resident fishermen of the state",
		Level:       model.SchemeLevelState,
		State:       "Kerala",
	})
	seedScheme(t, svc, &model.Scheme{
		SchemeName:  "National Crop Insurance",
		Eligibility: "All farmers across India",
		Level:       model.SchemeLevelCentral,
	})

	result, err := svc.CheckEligibility(context.Background(), &EligibilityRequest{
		State:      strPtr("Karnataka"),
		Occupation: strPtr("farmer"),
	})
	require.NoError(t, err)

	names := make([]string, 0)
	for _, m := range result.EligibleSchemes {
		names = append(names, m.Scheme.SchemeName)
	}
	// Central schemes stay in scope; other states drop out.
	assert.Contains(t, names, "Karnataka Farmer Relief")
	assert.Contains(t, names, "National Crop Insurance")
	assert.NotContains(t, names, "Kerala Fishermen Fund")
}

func TestEligibilitySkipsSchemesWithoutCriteria(t *testing.T) {
	svc := newTestSchemeService(t)

	seedScheme(t, svc, &model.Scheme{SchemeName: "Undocumented Scheme"})

	result, err := svc.CheckEligibility(context.Background(), &EligibilityRequest{Age: intPtr(30)})
	require.NoError(t, err)
	assert.Empty(t, result.EligibleSchemes)
}

func TestParseDocumentsList(t *testing.T) {
	docs := parseDocumentsList("Aadhaar Card\nRation Card\nIncome Certificate")
	assert.Equal(t, []string{"Aadhaar Card", "Ration Card", "Income Certificate"}, docs)

	docs = parseDocumentsList("• Aadhaar Card • Land Records")
	assert.Equal(t, []string{"Aadhaar Card", "Land Records"}, docs)

	docs = parseDocumentsList("Aadhaar Card only")
	assert.Equal(t, []string{"Aadhaar Card only"}, docs)

	assert.Empty(t, parseDocumentsList(""))
}

func TestSchemeListFiltersAndPaginates(t *testing.T) {
	svc := newTestSchemeService(t)

	seedScheme(t, svc, &model.Scheme{
		SchemeName:     "Crop Insurance Scheme",
		SchemeCategory: model.SchemeCategoryAgriculture,
		Level:          model.SchemeLevelCentral,
		Details:        "Insurance coverage for crop failure",
	})
	seedScheme(t, svc, &model.Scheme{
		SchemeName:     "Scholarship Programme",
		SchemeCategory: model.SchemeCategoryEducation,
		Level:          model.SchemeLevelCentral,
	})

	result, err := svc.List(context.Background(), repository.SchemeFilter{
		Category: model.SchemeCategoryAgriculture,
	}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
	require.Len(t, result.Schemes, 1)
	assert.Equal(t, "Crop Insurance Scheme", result.Schemes[0].SchemeName)

	result, err = svc.List(context.Background(), repository.SchemeFilter{Search: "insurance"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
}

func TestSchemeDetailNotFound(t *testing.T) {
	svc := newTestSchemeService(t)
	_, err := svc.Detail(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrSchemeNotFound)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "pm-kisan-samman-nidhi", util.Slugify("PM-KISAN Samman Nidhi"))
	assert.Equal(t, "scheme-2024", util.Slugify("  Scheme (2024)  "))
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }
