package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

func f(v float64) *float64 { return &v }

func TestNormalizeCIK(t *testing.T) {
	got, err := NormalizeCIK("320193")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", got)

	got, err = NormalizeCIK("0000320193")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", got)

	for _, bad := range []string{"", "0000", "12a", "12345678901"} {
		_, err := NormalizeCIK(bad)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), bad)
	}
}

func TestCompany_Validate(t *testing.T) {
	assert.NoError(t, Company{Name: "Acme", Sector: "Tech"}.Validate())

	err := Company{ESGMetrics: ESGMetrics{Social: f(101)}}.Validate()
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	fields := make([]string, 0, len(appErr.Fields))
	for _, fe := range appErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "sector", "esgMetrics.social"}, fields)
}

func TestPatch_Apply(t *testing.T) {
	name := " New Name "
	c := Company{Name: "Old", Sector: "Tech", Tags: []string{"a"}}
	out := Patch{Name: &name, ESGMetrics: &ESGMetrics{Environmental: f(80)}}.Apply(c)

	assert.Equal(t, "New Name", out.Name)
	assert.Equal(t, "Tech", out.Sector)
	assert.Equal(t, []string{"a"}, out.Tags)
	assert.InDelta(t, 80, *out.ESGMetrics.Environmental, 0.001)
	assert.Equal(t, "Old", c.Name)
}

func TestFromSubmission_KeepsCuratedFields(t *testing.T) {
	c := Company{Name: "Apple", Sector: "Technology", Ticker: "AAPL"}
	out := FromSubmission(c, Submission{
		CIK:     "0000320193",
		Name:    "Apple Inc.",
		Tickers: []string{"AAPL", "APC"},
		SICCode: "3571",
		SICDesc: "Electronic Computers",
		Website: "https://www.apple.com",
	})

	assert.Equal(t, "0000320193", out.CIK)
	assert.Equal(t, "Apple Inc.", out.Name)
	assert.Equal(t, "Technology", out.Sector)
	assert.Equal(t, "SIC 3571", out.Industry)
	assert.Equal(t, "https://www.apple.com", out.Profile.Website)

	fresh := FromSubmission(Company{}, Submission{CIK: "0000000001", Name: "New Co", SICDesc: "Banks"})
	assert.Equal(t, "Banks", fresh.Sector)
}
