package models_test

import (
	"testing"

	"estatecrm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientNameFallbackChain(t *testing.T) {
	agent := models.Agent{
		FullName:    "Jordan Reyes",
		DisplayName: "JR",
		Email:       "jordan@agency.test",
	}
	assert.Equal(t, "Jordan Reyes", agent.RecipientName())

	agent.FullName = ""
	assert.Equal(t, "JR", agent.RecipientName())

	agent.DisplayName = "  "
	assert.Equal(t, "jordan", agent.RecipientName())

	agent.Email = ""
	assert.Equal(t, "there", agent.RecipientName())
}

func TestRecipientNameIgnoresMalformedEmail(t *testing.T) {
	agent := models.Agent{Email: "@agency.test"}
	assert.Equal(t, "there", agent.RecipientName())

	agent.Email = "no-at-sign"
	assert.Equal(t, "there", agent.RecipientName())
}

func TestPasswordRoundTrip(t *testing.T) {
	var agent models.Agent
	require.NoError(t, agent.SetPassword("correct horse battery"))
	require.NotEmpty(t, agent.HashedPass)
	assert.NotEqual(t, "correct horse battery", agent.HashedPass)

	assert.True(t, agent.VerifyPassword("correct horse battery"))
	assert.False(t, agent.VerifyPassword("wrong password"))
	assert.False(t, agent.VerifyPassword(""))
}
