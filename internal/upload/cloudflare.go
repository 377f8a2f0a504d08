// AngelaMos | 2026
// cloudflare.go

package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/carterperez-dev/visitpro/internal/config"
	"github.com/carterperez-dev/visitpro/internal/core"
)

const (
	requestTimeout   = 15 * time.Second
	maxResponseBytes = 1 << 20
	defaultUpstream  = "Cloudflare direct upload initialization failed"
)

// Metadata is attached to the image so uploads can be traced back.
type Metadata struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	UploadedBy  string `json:"uploadedBy"`
}

type DirectUpload struct {
	ID        string
	UploadURL string
}

type directUploadEnvelope struct {
	Success bool `json:"success"`
	Result  *struct {
		ID        string `json:"id"`
		UploadURL string `json:"uploadURL"`
	} `json:"result"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Images talks to the Cloudflare Images v2 API.
type Images struct {
	httpClient   *http.Client
	accountID    string
	apiToken     string
	apiBase      string
	deliveryBase string
	logger       *slog.Logger
}

func NewImages(cfg config.CloudflareConfig, logger *slog.Logger) *Images {
	return NewImagesWithClient(cfg, &http.Client{
		Timeout:   requestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, logger)
}

func NewImagesWithClient(
	cfg config.CloudflareConfig,
	httpClient *http.Client,
	logger *slog.Logger,
) *Images {
	return &Images{
		httpClient:   httpClient,
		accountID:    strings.TrimSpace(cfg.AccountID),
		apiToken:     strings.TrimSpace(cfg.APIToken),
		apiBase:      strings.TrimRight(strings.TrimSpace(cfg.ImagesAPIBase), "/"),
		deliveryBase: strings.TrimRight(strings.TrimSpace(cfg.ImagesDeliveryBase), "/"),
		logger:       logger,
	}
}

func (c *Images) Configured() bool {
	return c.accountID != "" && c.apiToken != ""
}

// PublicURL is the delivery URL of the public variant, or empty when no
// delivery base is configured.
func (c *Images) PublicURL(imageID string) string {
	if c.deliveryBase == "" || imageID == "" {
		return ""
	}
	return c.deliveryBase + "/" + imageID + "/public"
}

// CreateDirectUpload reserves a one-time upload URL the client can post the
// file to without going through this server.
func (c *Images) CreateDirectUpload(ctx context.Context, meta Metadata) (*DirectUpload, error) {
	if !c.Configured() {
		return nil, core.NotImplementedError("Cloudflare Images is not configured")
	}

	ctx, span := core.StartSpan(ctx, "cloudflare.direct_upload")
	defer span.End()

	body, contentType, err := directUploadForm(meta)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/images/v2/direct_upload", c.apiBase, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build direct upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		core.SetSpanError(ctx, err)
		c.logger.Error("cloudflare direct upload request failed", "error", err)
		return nil, core.UpstreamError(err, defaultUpstream)
	}
	defer resp.Body.Close() //nolint:errcheck

	var envelope directUploadEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&envelope)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || decodeErr != nil || !envelope.Success || envelope.Result == nil || envelope.Result.UploadURL == "" {
		message := defaultUpstream
		if len(envelope.Errors) > 0 && envelope.Errors[0].Message != "" {
			message = envelope.Errors[0].Message
		}
		c.logger.Error("cloudflare direct upload error",
			"status", resp.StatusCode,
			"message", message,
		)
		return nil, core.UpstreamError(nil, message).WithDetail("cloudflareStatus", resp.StatusCode)
	}

	return &DirectUpload{
		ID:        envelope.Result.ID,
		UploadURL: envelope.Result.UploadURL,
	}, nil
}

func directUploadForm(meta Metadata) (*bytes.Buffer, string, error) {
	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("encode upload metadata: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("requireSignedURLs", "false"); err != nil {
		return nil, "", fmt.Errorf("write upload form: %w", err)
	}
	if err := form.WriteField("metadata", string(metadata)); err != nil {
		return nil, "", fmt.Errorf("write upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("close upload form: %w", err)
	}

	return &buf, form.FormDataContentType(), nil
}
