package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/credential"
	"github.com/nhle/crm-console/internal/intake"
	"github.com/nhle/crm-console/internal/intake/email"
	"github.com/nhle/crm-console/internal/model"
	appsync "github.com/nhle/crm-console/internal/sync"
)

// SecretFunc looks up a credential by keyring key.
type SecretFunc func(key string) (string, error)

// SourceFactory builds an intake source from its config and password.
type SourceFactory func(cfg model.IntakeConfig, password string) intake.Source

// EmailSource is the SourceFactory for IMAP mailboxes.
func EmailSource(cfg model.IntakeConfig, password string) intake.Source {
	return email.NewAdapter(cfg, password)
}

// ValidateMailbox connects to a mailbox and returns the authenticated
// user.
func ValidateMailbox(ctx context.Context, cfg model.IntakeConfig, password string) (string, error) {
	return EmailSource(cfg, password).ValidateConnection(ctx)
}

// RegisterIntake registers every enabled intake mailbox with the poller.
// Mailboxes whose password cannot be found are skipped and logged. It
// returns the number of registered sources.
func RegisterIntake(
	p *appsync.Poller,
	intakes []model.IntakeConfig,
	secret SecretFunc,
	build SourceFactory,
	logger *zap.Logger,
) int {
	if logger == nil {
		logger = zap.NewNop()
	}

	registered := 0
	for _, cfg := range intakes {
		if !cfg.Enabled {
			continue
		}

		password, err := secret(credential.IntakeKey(cfg.Name))
		if err != nil {
			logger.Warn("skipping intake mailbox: credential not found",
				zap.String("intake", cfg.Name),
				zap.Error(err),
			)
			continue
		}

		p.RegisterSource(build(cfg, password), time.Duration(cfg.PollIntervalSec)*time.Second)
		registered++
	}

	return registered
}
