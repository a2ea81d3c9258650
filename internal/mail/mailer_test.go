package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwenlim/accounts-be/internal/config"
)

func TestSendPasswordReset_MissingConfig(t *testing.T) {
	t.Parallel()

	sender := NewSMTPSender(config.SMTP{})
	err := sender.SendPasswordReset("user@example.com", "http://localhost:3000/reset-password?token=x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp config missing")
}

func TestResetBody(t *testing.T) {
	t.Parallel()

	link := "http://localhost:3000/reset-password?token=deadbeef&email=user%40example.com"
	body := resetBody(link)
	assert.Contains(t, body, link)
	assert.Contains(t, body, "valid for one hour")
}
