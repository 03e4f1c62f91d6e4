package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

func TestValidateScore(t *testing.T) {
	for _, ok := range []float64{0, 0.1, 50, 99.9, 100} {
		assert.NoError(t, ValidateScore(ok), ok)
	}
	for _, bad := range []float64{-0.01, 100.01, -1, 1000, math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := ValidateScore(bad)
		assert.ErrorIs(t, err, ErrScoreRange, bad)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestCriteria_KeyIsDeterministic(t *testing.T) {
	a := Criteria{Category: CategorySocial, Page: 2, Limit: 5}
	b := Criteria{Limit: 5, Page: 2, Category: CategorySocial, SortBy: "bogus", SortOrder: "DESC"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "category=social&limit=5&page=2&sortBy=score&sortOrder=desc", a.Key())
	assert.NotEqual(t, a.Key(), Criteria{}.Key())
}

func TestCriteria_Validate(t *testing.T) {
	assert.NoError(t, Criteria{}.Validate())
	assert.Error(t, Criteria{Category: "ethics"}.Validate())
	assert.Error(t, Criteria{Status: "deleted"}.Validate())
}

func TestValidateFeedback(t *testing.T) {
	assert.NoError(t, ValidateFeedback(""))
	long := make([]rune, MaxFeedbackLength+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.Error(t, ValidateFeedback(string(long)))
}
