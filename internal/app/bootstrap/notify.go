package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/storefront-ai-assistant/internal/config"
	"github.com/wolfman30/storefront-ai-assistant/internal/conversation"
	"github.com/wolfman30/storefront-ai-assistant/internal/notify"
	"github.com/wolfman30/storefront-ai-assistant/pkg/logging"
)

// AWSConfigLoader resolves AWS SDK configuration on first use.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// BuildEmailSender selects the configured email provider. Unknown or
// unconfigured providers fall back to the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			logger.Info("email provider: sendgrid")
			return sender, nil
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY empty; using stub sender")
	case "ses":
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: aws config loader required for ses")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("email provider: ses", "region", awsCfg.Region)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	case "":
	default:
		logger.Warn("unknown email provider; using stub sender", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger), nil
}

// BuildLeadNotifier returns nil when lead notifications are disabled.
func BuildLeadNotifier(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (conversation.LeadNotifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	to := strings.TrimSpace(cfg.LeadNotifyEmail)
	if !cfg.LeadNotifyOn || to == "" {
		return nil, nil
	}
	sender, err := BuildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	notifier := notify.NewLeadNotifier(sender, to, logger)
	if notifier == nil {
		return nil, nil
	}
	return notifier, nil
}
