package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wealthplan/backend/internal/config"
	emailProvider "github.com/wealthplan/backend/pkg/email"
	mock_email "github.com/wealthplan/backend/pkg/email/mock"
)

// useTemplateDir points the process at a temp dir with the login alert
// template, since templates resolve relative to the working directory.
func useTemplateDir(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "templates"), 0o755))

	tpl := "<p>New sign-in from {{.DeviceInfo}} ({{.IP}}) at {{.SignedInAt}}</p>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates", "login_alert.html"), []byte(tpl), 0o600))

	t.Chdir(dir)
}

func Test_EmailSender_SendLoginAlertEmail(t *testing.T) {
	emailCfg := config.EmailConfig{
		Enabled:   true,
		Templates: config.EmailTemplates{LoginAlert: "login_alert.html"},
	}
	signedInAt := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("renders template and sends", func(t *testing.T) {
		useTemplateDir(t)

		provider := new(mock_email.EmailSender)
		provider.On("Send", mock.MatchedBy(func(inp emailProvider.SendEmailInput) bool {
			return inp.To == "jane@example.com" && inp.Subject == "New sign-in to your account"
		})).Return(nil)

		sender := newEmailSender(provider, emailCfg)

		err := sender.SendLoginAlertEmail(t.Context(), "jane@example.com", "cli-test", "127.0.0.1", signedInAt)
		require.NoError(t, err)

		provider.AssertExpectations(t)
		sent := provider.Calls[0].Arguments.Get(0).(emailProvider.SendEmailInput)
		assert.Contains(t, sent.Body, "cli-test")
		assert.Contains(t, sent.Body, "127.0.0.1")
	})

	t.Run("missing template", func(t *testing.T) {
		t.Chdir(t.TempDir())

		provider := new(mock_email.EmailSender)
		sender := newEmailSender(provider, emailCfg)

		err := sender.SendLoginAlertEmail(t.Context(), "jane@example.com", "cli-test", "127.0.0.1", signedInAt)
		require.Error(t, err)
		provider.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("disabled config is a no-op", func(t *testing.T) {
		provider := new(mock_email.EmailSender)
		sender := newEmailSender(provider, config.EmailConfig{})

		err := sender.SendLoginAlertEmail(t.Context(), "jane@example.com", "cli-test", "127.0.0.1", signedInAt)
		require.NoError(t, err)
		provider.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("nil provider is a no-op", func(t *testing.T) {
		sender := newEmailSender(nil, emailCfg)

		err := sender.SendLoginAlertEmail(t.Context(), "jane@example.com", "cli-test", "127.0.0.1", signedInAt)
		require.NoError(t, err)
	})
}
