package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTooShort(t *testing.T) {
	bodies := []string{"", "a", "idiot", "SHOUTING!", "123456789", "héllo wör"}
	for _, body := range bodies {
		err := Check(body)
		require.Error(t, err, body)
		assert.ErrorIs(t, err, ErrTooShort, body)
	}
}

func TestCheckDenylistIsCaseInsensitiveSubstring(t *testing.T) {
	bodies := []string{
		"you are an IDIOT honestly",
		"this product is a ScAm, avoid it",
		"what an idiotic thing to say",
		"antispamming tools are great",
	}
	for _, body := range bodies {
		err := Check(body)
		assert.ErrorIs(t, err, ErrInappropriateLanguage, body)
	}
}

func TestCheckExcessiveCapitalization(t *testing.T) {
	err := Check("THIS IS THE BEST DIET EVER")
	assert.ErrorIs(t, err, ErrExcessiveCapitalization)

	// Exactly 20 characters is not long enough to trigger the rule.
	body := strings.Repeat("A", 20)
	require.Len(t, body, 20)
	assert.NoError(t, Check(body))

	// Half uppercase is not more than half.
	assert.NoError(t, Check("ABCDEFGHIJKLabcdefghijkl"))
}

func TestCheckOrderFirstMatchWins(t *testing.T) {
	// Short and denylisted: length rule comes first.
	assert.ErrorIs(t, Check("SPAM"), ErrTooShort)
	// Denylisted and shouting: denylist comes before capitalization.
	assert.ErrorIs(t, Check("STOP POSTING THIS SPAM PLEASE"), ErrInappropriateLanguage)
}

func TestCheckAccepts(t *testing.T) {
	assert.NoError(t, Check("Drinking water before meals helps me a lot."))
	assert.NoError(t, Check("exactly10!"))
}

func TestRejectionReason(t *testing.T) {
	err := Check("short")

	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, ErrTooShort, rejection.Reason)
	assert.Equal(t, "content rejected: too short", err.Error())
}

func TestCustomFilter(t *testing.T) {
	f := New(" Kale ", "")
	assert.ErrorIs(t, f.Check("I hate KALE smoothies so much"), ErrInappropriateLanguage)
	assert.NoError(t, f.Check("you are an idiot but that is fine here"))
}
