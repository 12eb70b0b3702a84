package worker

import (
	"context"
	"time"

	"github.com/wealthplan/backend/internal/config"
	emailProvider "github.com/wealthplan/backend/pkg/email"
)

type Workers struct {
	EmailSender EmailSender
}

type Deps struct {
	EmailProvider emailProvider.Sender
	Config        *config.Config
}

type EmailSender interface {
	SendLoginAlertEmail(ctx context.Context, email string, deviceInfo string, ip string, signedInAt time.Time) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		EmailSender: newEmailSender(deps.EmailProvider, deps.Config.Email),
	}
}
