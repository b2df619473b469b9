package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		in   string
		want Line
		ok   bool
	}{
		{"Motor", LineMotor, true},
		{" motor ", LineMotor, true},
		{"LIFE", LineLife, true},
		{"Home", Line("Home"), false},
		{"", Line(""), false},
	}
	for _, tc := range cases {
		got, ok := ParseLine(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestSlots_Has(t *testing.T) {
	s := Slots{"year": 2015, "usage": "private", "blank": "  ", "none": nil, "zero": 0, "no": false}

	assert.True(t, s.Has("year"))
	assert.True(t, s.Has("usage"))
	assert.True(t, s.Has("zero"))
	assert.True(t, s.Has("no"))
	assert.False(t, s.Has("blank"))
	assert.False(t, s.Has("none"))
	assert.False(t, s.Has("missing"))

	var empty Slots
	assert.False(t, empty.Has("year"))
}

func TestSlots_Flag(t *testing.T) {
	s := Slots{"a": true, "b": "true", "c": false, "d": 1}
	assert.True(t, s.Flag("a"))
	assert.False(t, s.Flag("b"))
	assert.False(t, s.Flag("c"))
	assert.False(t, s.Flag("d"))
	assert.False(t, s.Flag("missing"))
}

func TestSlots_CloneIsShallowCopy(t *testing.T) {
	s := Slots{"age": 50}
	c := s.Clone()
	c["age"] = 51
	assert.Equal(t, 50, s["age"])
}

func TestQuoteStatus_Transitions(t *testing.T) {
	allowed := map[QuoteStatus][]QuoteStatus{
		QuoteStatusDraft:     {QuoteStatusPreviewed, QuoteStatusSent, QuoteStatusExpired, QuoteStatusCancelled},
		QuoteStatusPreviewed: {QuoteStatusSent, QuoteStatusExpired, QuoteStatusCancelled},
		QuoteStatusSent:      {QuoteStatusAccepted, QuoteStatusExpired, QuoteStatusCancelled},
	}
	all := []QuoteStatus{
		QuoteStatusDraft, QuoteStatusPreviewed, QuoteStatusSent,
		QuoteStatusAccepted, QuoteStatusExpired, QuoteStatusCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestQuoteStatus_Terminal(t *testing.T) {
	assert.False(t, QuoteStatusDraft.Terminal())
	assert.False(t, QuoteStatusSent.Terminal())
	assert.True(t, QuoteStatusAccepted.Terminal())
	assert.True(t, QuoteStatusExpired.Terminal())
	assert.True(t, QuoteStatusCancelled.Terminal())
	assert.False(t, QuoteStatus("CREATED").Terminal())
	assert.False(t, QuoteStatus("CREATED").Valid())
}

func TestQuoteStatus_Transition(t *testing.T) {
	next, err := QuoteStatusSent.Transition(QuoteStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusAccepted, next)

	_, err = QuoteStatusAccepted.Transition(QuoteStatusDraft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, QuoteStatusAccepted, te.From)
	assert.Equal(t, "cannot move quote from ACCEPTED to DRAFT", err.Error())
}

func TestRateTable_Defaults(t *testing.T) {
	var rt RateTable
	assert.Equal(t, 400.0, rt.BaseOr(400))
	assert.Equal(t, 20.0, rt.PerYearOr(20))
	assert.Equal(t, 1.35, rt.SmokerLoadOr(1.35))
	assert.Equal(t, "MYR", rt.CurrencyOr("MYR"))

	rt = RateTable{Base: 0, HasBase: true, Currency: "SGD"}
	assert.Equal(t, 0.0, rt.BaseOr(400))
	assert.Equal(t, "SGD", rt.CurrencyOr("MYR"))
}
