package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n, err := New("u1", "  hello ", "", "", now)
	require.NoError(t, err)

	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, "hello", n.Message)
	assert.Equal(t, DefaultTitle, n.Title)
	assert.Equal(t, TypeInfo, n.Type)
	assert.False(t, n.Read)
	assert.Equal(t, now, n.CreatedAt)
}

func TestNew_Rejects(t *testing.T) {
	now := time.Now()
	cases := map[string]struct {
		message, title string
		typ            Type
	}{
		"empty message": {message: " "},
		"long message":  {message: strings.Repeat("x", MaxMessageLength+1)},
		"long title":    {message: "m", title: strings.Repeat("t", MaxTitleLength+1)},
		"unknown type":  {message: "m", typ: "promo"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New("u1", tc.message, tc.title, tc.typ, now)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Current: 1, Total: 3, Count: 10, TotalRecords: 21}, NewPagination(1, 10, 10, 21))
	assert.Equal(t, Pagination{Current: 1, Total: 0, Count: 0, TotalRecords: 0}, NewPagination(1, 10, 0, 0))
}
