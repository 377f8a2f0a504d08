// AngelaMos | 2026
// push.go

package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/carterperez-dev/visitpro/internal/config"
)

// FCM accepts at most this many tokens per multicast call.
const maxMulticastTokens = 500

var ErrNotConfigured = errors.New("push notifications are not configured")

type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

type Result struct {
	SentCount     int
	FailedCount   int
	InvalidTokens []string
}

type Multicaster interface {
	SendEachForMulticast(
		ctx context.Context,
		message *messaging.MulticastMessage,
	) (*messaging.BatchResponse, error)
}

type Notifier struct {
	client    Multicaster
	deadToken func(error) bool
}

// New returns nil when Firebase credentials are absent.
func New(ctx context.Context, cfg config.FirebaseConfig) (*Notifier, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	credentials, projectID, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: projectID},
		option.WithCredentialsJSON(credentials),
	)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}

	return NewWithClient(client), nil
}

func NewWithClient(client Multicaster) *Notifier {
	return &Notifier{client: client, deadToken: isUnregisteredToken}
}

// Send delivers payload to every distinct token. Tokens FCM reports as
// unregistered are returned so callers can prune them. A batch whose call
// fails counts all of its tokens as failed; Send only errors when every
// batch failed.
func (n *Notifier) Send(ctx context.Context, tokens []string, payload Payload) (Result, error) {
	var (
		result   Result
		failures []error
		batches  int
	)

	unique := dedupe(tokens)
	for start := 0; start < len(unique); start += maxMulticastTokens {
		batch := unique[start:min(start+maxMulticastTokens, len(unique))]
		batches++

		resp, err := n.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: payload.Title,
				Body:  payload.Body,
			},
			Data: payload.Data,
		})
		if err != nil {
			result.FailedCount += len(batch)
			failures = append(failures, fmt.Errorf("send multicast: %w", err))
			continue
		}

		result.SentCount += resp.SuccessCount
		result.FailedCount += resp.FailureCount
		for i, r := range resp.Responses {
			if r == nil || r.Success || i >= len(batch) {
				continue
			}
			if n.deadToken(r.Error) {
				result.InvalidTokens = append(result.InvalidTokens, batch[i])
			}
		}
	}

	if batches > 0 && len(failures) == batches {
		return result, errors.Join(failures...)
	}
	return result, nil
}

// isUnregisteredToken matches only the per-token unregistered code.
// INVALID_ARGUMENT also covers message-level faults such as oversized
// payloads, so it never marks a token dead.
func isUnregisteredToken(err error) bool {
	return err != nil && messaging.IsUnregistered(err)
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// credentialsJSON builds a service account document either from the raw
// JSON setting or from the split project/email/key settings.
func credentialsJSON(cfg config.FirebaseConfig) ([]byte, string, error) {
	if raw := strings.TrimSpace(cfg.ServiceAccountJSON); raw != "" {
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, "", fmt.Errorf("firebase service account json is invalid: %w", err)
		}

		for _, key := range []string{"private_key", "privateKey"} {
			if value, ok := doc[key].(string); ok && value != "" {
				doc["private_key"] = config.FirebaseConfig{PrivateKey: value}.NormalizedPrivateKey()
				break
			}
		}
		if _, ok := doc["type"]; !ok {
			doc["type"] = "service_account"
		}

		projectID, _ := doc["project_id"].(string)
		if projectID == "" {
			projectID = strings.TrimSpace(cfg.ProjectID)
		}

		out, err := json.Marshal(doc)
		if err != nil {
			return nil, "", fmt.Errorf("encode service account: %w", err)
		}
		return out, projectID, nil
	}

	projectID := strings.TrimSpace(cfg.ProjectID)
	out, err := json.Marshal(serviceAccount{
		Type:        "service_account",
		ProjectID:   projectID,
		ClientEmail: strings.TrimSpace(cfg.ClientEmail),
		PrivateKey:  cfg.NormalizedPrivateKey(),
		TokenURI:    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, "", fmt.Errorf("encode service account: %w", err)
	}
	return out, projectID, nil
}
