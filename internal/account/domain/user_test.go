package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestHasStarred(t *testing.T) {
	u := User{StarredCompanies: []string{"c1", "c2"}}
	assert.True(t, u.HasStarred("c2"))
	assert.False(t, u.HasStarred("c3"))
	assert.False(t, User{}.HasStarred("c1"))
}
