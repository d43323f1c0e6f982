package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/config"
	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/httpclient"
	"github.com/aleister1102/firefoxversions/internal/notifier/discord"
	"github.com/rs/zerolog"
)

// DiscordNotifier posts stored events and check failures to a Discord webhook.
type DiscordNotifier struct {
	cfg        config.NotificationConfig
	httpClient *httpclient.HTTPClient
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDiscordNotifier creates a new DiscordNotifier
func NewDiscordNotifier(cfg config.NotificationConfig, httpClient *httpclient.HTTPClient, logger zerolog.Logger) (*DiscordNotifier, error) {
	if httpClient == nil {
		return nil, common.NewValidationError("http_client", nil, "HTTP client cannot be nil")
	}

	moduleLogger := logger.With().Str("component", "DiscordNotifier").Logger()
	if cfg.DiscordWebhookURL == "" {
		moduleLogger.Info().Msg("Discord webhook URL is not configured, notifications disabled")
	}

	return &DiscordNotifier{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     moduleLogger,
		now:        time.Now,
	}, nil
}

// Enabled reports whether a webhook URL is configured.
func (dn *DiscordNotifier) Enabled() bool {
	return dn.cfg.DiscordWebhookURL != ""
}

// Publish announces a stored event.
func (dn *DiscordNotifier) Publish(ctx context.Context, event datastore.Event) error {
	if !dn.Enabled() || !dn.cfg.NotifyOnEvent {
		return nil
	}

	payload, err := FormatEventMessage(event, dn.cfg.MentionRoleIDs)
	if err != nil {
		return common.WrapError(err, "failed to format event message")
	}
	return dn.SendNotification(ctx, payload)
}

// NotifyFailure announces a failed check.
func (dn *DiscordNotifier) NotifyFailure(ctx context.Context, agentName string, checkErr error) error {
	if !dn.Enabled() || !dn.cfg.NotifyOnFailure || checkErr == nil {
		return nil
	}

	payload, err := FormatFailureMessage(agentName, checkErr, dn.now())
	if err != nil {
		return common.WrapError(err, "failed to format failure message")
	}
	return dn.SendNotification(ctx, payload)
}

// SendNotification posts payload to the configured webhook.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, payload discord.MessagePayload) error {
	if !dn.Enabled() {
		dn.logger.Debug().Msg("Webhook URL is empty, skipping Discord notification")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(err, "failed to marshal discord payload")
	}

	resp, err := dn.httpClient.Do(&httpclient.Request{
		URL:     dn.cfg.DiscordWebhookURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    bytes.NewReader(body),
		Context: ctx,
	})
	if err != nil {
		dn.logger.Error().Err(err).Msg("Failed to send Discord notification")
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		dn.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(resp.Body)).
			Msg("Discord notification failed")
		return common.NewHTTPErrorWithURL(resp.StatusCode, fmt.Sprintf("discord notification failed: %s", string(resp.Body)), dn.cfg.DiscordWebhookURL)
	}

	dn.logger.Info().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}
