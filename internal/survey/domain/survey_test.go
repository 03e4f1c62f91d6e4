package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

func seqIDs() NewIDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("q%d", n)
	}
}

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newDraftSurvey(t *testing.T) Survey {
	t.Helper()
	s, err := New("owner", Draft{
		Title: "Values",
		Questions: []Question{
			{QuestionText: "Favourite cause?", QuestionType: QuestionMultipleChoice, IsRequired: true,
				Options: []Option{{Text: "Climate", Value: "climate"}, {Text: "Labour", Value: "labour"}}},
			{QuestionText: "Anything else?", QuestionType: QuestionOpenEnded, Order: 7},
		},
	}, seqIDs(), now)
	require.NoError(t, err)
	return s
}

func TestNew_AssignsIDsAndOrder(t *testing.T) {
	s := newDraftSurvey(t)
	assert.Equal(t, StatusDraft, s.Status)
	assert.Equal(t, AudienceAll, s.TargetAudience)
	require.Len(t, s.Questions, 2)
	assert.Equal(t, "q1", s.Questions[0].ID)
	assert.Equal(t, 1, s.Questions[0].Order)
	assert.Equal(t, 7, s.Questions[1].Order)
}

func TestNew_RejectsBadQuestions(t *testing.T) {
	for name, q := range map[string]Question{
		"missing text": {QuestionType: QuestionRating},
		"bad type":     {QuestionText: "?", QuestionType: "slider"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New("owner", Draft{Title: "t", Questions: []Question{q}}, seqIDs(), now)
			assert.ErrorIs(t, err, ErrInvalidQuestion)
		})
	}
	_, err := New("owner", Draft{Title: " "}, seqIDs(), now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLifecycle(t *testing.T) {
	s := newDraftSurvey(t)

	_, err := s.Publish("intruder", now)
	assert.ErrorIs(t, err, ErrNotOwner)

	published, err := s.Publish("owner", now)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, published.Status)
	require.NotNil(t, published.StartDate)
	assert.Equal(t, now, *published.StartDate)

	_, err = published.Publish("owner", now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = published.Update("owner", Draft{Title: "x"}, seqIDs(), now)
	assert.ErrorIs(t, err, ErrNotDraft)
	assert.ErrorIs(t, published.CheckEditable("owner"), ErrNotDraft)

	closed, err := published.Close("owner", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.EndDate)

	_, err = closed.Close("owner", now)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestPublish_RequiresQuestions(t *testing.T) {
	s, err := New("owner", Draft{Title: "Empty"}, seqIDs(), now)
	require.NoError(t, err)
	_, err = s.Publish("owner", now)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestNewResponse_OnlyWhilePublished(t *testing.T) {
	draft := newDraftSurvey(t)
	answers := []Answer{{QuestionID: "q1", Answer: "climate"}}

	_, err := draft.NewResponse("u1", answers, now)
	assert.ErrorIs(t, err, ErrNotPublished)

	published, err := draft.Publish("owner", now)
	require.NoError(t, err)
	resp, err := published.NewResponse("u1", answers, now)
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)

	closed, err := published.Close("owner", now)
	require.NoError(t, err)
	_, err = closed.NewResponse("u1", answers, now)
	assert.ErrorIs(t, err, ErrNotPublished)
}

func TestNewResponse_ValidatesAnswers(t *testing.T) {
	s, err := newDraftSurvey(t).Publish("owner", now)
	require.NoError(t, err)

	_, err = s.NewResponse("u1", []Answer{{QuestionID: "nope", Answer: "x"}}, now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.NewResponse("u1", []Answer{{QuestionID: "q2", Answer: "only optional"}}, now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = s.NewResponse("u1", []Answer{{QuestionID: "q1", Answer: "  "}}, now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	resp, err := s.NewResponse("u1", []Answer{{QuestionID: "q1", Answer: "labour"}}, now)
	require.NoError(t, err)
	s.Responses = append(s.Responses, resp)

	_, err = s.NewResponse("u1", []Answer{{QuestionID: "q1", Answer: "labour"}}, now)
	assert.ErrorIs(t, err, ErrAlreadyResponded)
}

func TestVisibilityAndView(t *testing.T) {
	s := newDraftSurvey(t)
	assert.True(t, s.VisibleTo("owner"))
	assert.False(t, s.VisibleTo("other"))

	s.Status = StatusPublished
	s.Responses = []Response{{UserID: "u1"}}
	assert.True(t, s.VisibleTo("other"))

	other := s.ViewFor("other")
	assert.Nil(t, other.Responses)
	assert.Equal(t, 1, other.ResponseCount)

	mine := s.ViewFor("owner")
	assert.Len(t, mine.Responses, 1)
	assert.Equal(t, 1, mine.ResponseCount)
}
