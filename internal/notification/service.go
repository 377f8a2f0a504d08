// AngelaMos | 2026
// service.go

package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/push"
	"github.com/carterperez-dev/visitpro/internal/user"
)

const (
	defaultTestTitle = "visitpro test notification"
	defaultTestBody  = "Push notifications are configured correctly on your device."
)

type PushSender interface {
	Send(ctx context.Context, tokens []string, payload push.Payload) (push.Result, error)
}

type Service struct {
	users  user.Repository
	push   PushSender
	logger *slog.Logger
}

// NewService accepts a nil sender when Firebase is not configured; device
// registration still works in that case.
func NewService(users user.Repository, sender PushSender, logger *slog.Logger) *Service {
	return &Service{users: users, push: sender, logger: logger}
}

func (s *Service) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.BadRequestError("token is required")
	}
	return s.users.AddPushToken(ctx, userID, token)
}

func (s *Service) RemoveToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.BadRequestError("token is required")
	}
	return s.users.RemovePushToken(ctx, userID, token)
}

// SendTest pushes a test message to every device of the caller and prunes
// the tokens the provider rejects.
func (s *Service) SendTest(ctx context.Context, userID string, req TestRequest) (*TestResponse, error) {
	if s.push == nil {
		return nil, core.UnavailableError("Push notifications are not configured on the server.")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("User not found")
		}
		return nil, err
	}

	tokens := u.ActivePushTokens()
	if len(tokens) == 0 {
		return nil, core.BadRequestError("No push token registered for this user.")
	}

	result, err := s.push.Send(ctx, tokens, push.Payload{
		Title: orDefault(req.Title, defaultTestTitle),
		Body:  orDefault(req.Body, defaultTestBody),
		Data:  map[string]string{"type": "test"},
	})
	if err != nil {
		return nil, core.UpstreamError(err, "Failed to send test notification")
	}

	if len(result.InvalidTokens) > 0 {
		if err := s.users.PrunePushTokens(ctx, []string{u.ID}, result.InvalidTokens); err != nil {
			return nil, err
		}
		s.logger.Info("pruned invalid push tokens",
			"user_id", u.ID,
			"count", len(result.InvalidTokens),
		)
	}

	return &TestResponse{
		OK:                   true,
		SentCount:            result.SentCount,
		FailedCount:          result.FailedCount,
		InvalidTokensRemoved: len(result.InvalidTokens),
	}, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
