package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/wealthplan/backend/internal/config"
	emailProvider "github.com/wealthplan/backend/pkg/email"
)

type emailSender struct {
	sender emailProvider.Sender
	config config.EmailConfig
}

func newEmailSender(
	sender emailProvider.Sender,
	config config.EmailConfig,
) *emailSender {
	return &emailSender{
		sender: sender,
		config: config,
	}
}

type loginAlertEmailInput struct {
	DeviceInfo string
	IP         string
	SignedInAt string
}

func (s *emailSender) SendLoginAlertEmail(ctx context.Context, email string, deviceInfo string, ip string, signedInAt time.Time) error {
	if s.sender == nil || !s.config.Enabled {
		return nil
	}

	subject := "New sign-in to your account"

	templateInput := loginAlertEmailInput{
		DeviceInfo: deviceInfo,
		IP:         ip,
		SignedInAt: signedInAt.Format(time.RFC1123),
	}
	sendInput := emailProvider.SendEmailInput{Subject: subject, To: email}

	if err := sendInput.GenerateBodyFromHTML(s.config.Templates.LoginAlert, templateInput); err != nil {
		return fmt.Errorf("generate email failed: %w", err)
	}

	if err := s.sender.Send(sendInput); err != nil {
		return fmt.Errorf("send email failed: %w", err)
	}

	return nil
}
