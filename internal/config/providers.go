package config

import (
	"fmt"
	"log/slog"

	"github.com/DamianAcri/menulink-sub001/internal/mail"
)

// Sender is the configured From address.
func (m MailConfig) Sender() mail.Address {
	return mail.Address{Name: m.FromName, Email: m.FromEmail}
}

// NewProvider builds the configured provider, wrapped in mail.Failover
// when a fallback is set.
func (m MailConfig) NewProvider(logger *slog.Logger) (mail.Provider, error) {
	primary, err := m.provider(m.Provider, logger)
	if err != nil {
		return nil, err
	}
	if m.Fallback == "" {
		return primary, nil
	}
	secondary, err := m.provider(m.Fallback, logger)
	if err != nil {
		return nil, err
	}
	return &mail.Failover{Primary: primary, Secondary: secondary, Logger: logger}, nil
}

func (m MailConfig) provider(name string, logger *slog.Logger) (mail.Provider, error) {
	switch name {
	case ProviderResend:
		p := mail.NewResend(m.Resend.APIKey)
		if m.Resend.BaseURL != "" {
			p.BaseURL = m.Resend.BaseURL
		}
		return p, nil
	case ProviderBrevo:
		p := mail.NewBrevo(m.Brevo.APIKey)
		if m.Brevo.BaseURL != "" {
			p.BaseURL = m.Brevo.BaseURL
		}
		return p, nil
	case ProviderLog, "":
		return &mail.Log{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", name)
	}
}
