// Package reminder implements the periodic review-wait reminder sweep.
package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/triageops/reviewqueue/internal/config"
	pullrequestModel "github.com/triageops/reviewqueue/internal/pullrequest/model"
	"github.com/triageops/reviewqueue/pkg/retry"
)

// Notifier delivers reminder notifications to reviewers.
type Notifier interface {
	// SendReminder notifies userID that a pull request awaits their review.
	SendReminder(ctx context.Context, userID string, pr *pullrequestModel.PullRequest) error
}

// httpNotifier posts reminders to the chat-service webhook endpoint.
type httpNotifier struct {
	url      string
	http     *http.Client
	retryCfg retry.Config
	logger   *zap.SugaredLogger
}

// NewHTTPNotifier creates a notifier that posts to cfg.NotifierURL.
func NewHTTPNotifier(cfg *config.RemoteConfig, logger *zap.SugaredLogger) Notifier {
	return &httpNotifier{
		url:      cfg.NotifierURL,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		retryCfg: retry.RemoteConfig(),
		logger:   logger,
	}
}

// reminderPayload is the wire shape sent to the chat service.
type reminderPayload struct {
	UserID string `json:"user_id"`
	Repo   string `json:"repo"`
	Number int64  `json:"number"`
	SentAt string `json:"sent_at"`
}

// SendReminder posts one reminder, retrying transient failures.
func (n *httpNotifier) SendReminder(
	ctx context.Context,
	userID string,
	pr *pullrequestModel.PullRequest,
) error {
	payload := reminderPayload{
		UserID: userID,
		Repo:   pr.Repo,
		Number: pr.Number,
		SentAt: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return retry.Do(ctx, n.retryCfg, func() error {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("notifier request: status %d", resp.StatusCode)
		}
		return nil
	})
}
