package validators

import (
	"context"
	"errors"

	"github.com/9ssi7/turnstile"
	"go.uber.org/zap"
)

var (
	ErrTokenRequired = errors.New("token is required")
	ErrTokenInvalid  = errors.New("token_not_valid")
	ErrVerification  = errors.New("internal_server_error")
)

// TurnstileConfig configures the Cloudflare Turnstile check. An empty
// Secret disables it.
type TurnstileConfig struct {
	Secret string
	// TestToken is accepted without calling Cloudflare unless Release is set.
	TestToken string
	Release   bool
}

// ValidateTurnstileToken verifies the widget token posted with the form.
func ValidateTurnstileToken(ctx context.Context, cfg TurnstileConfig, token, ip string, logger *zap.Logger) error {
	if cfg.Secret == "" {
		return nil
	}
	if token == "" {
		logger.Info("turnstile token missing", zap.String("ip", ip))
		return ErrTokenRequired
	}
	if !cfg.Release && cfg.TestToken != "" && token == cfg.TestToken {
		logger.Debug("turnstile test token used")
		return nil
	}

	srv := turnstile.New(turnstile.Config{
		Secret: cfg.Secret,
	})
	ok, err := srv.Verify(ctx, token, ip)
	if err != nil {
		logger.Error("turnstile verification failed", zap.Error(err))
		return ErrVerification
	}
	if !ok {
		logger.Info("turnstile token not valid", zap.String("ip", ip))
		return ErrTokenInvalid
	}
	return nil
}
