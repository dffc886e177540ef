package cloudstt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"mindscribe/internal/align"
	"mindscribe/internal/logging"
	"mindscribe/internal/services"
)

// Config captures the remote transcription service settings.
type Config struct {
	// URL is the service base URL.
	URL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// RequestTimeout bounds individual HTTP requests.
	RequestTimeout time.Duration
	// PollInterval is the delay between status checks.
	PollInterval time.Duration
	// PollTimeout bounds the full wait for a submitted transcription.
	PollTimeout time.Duration
	// MaxRetries bounds retry attempts for transient request failures.
	MaxRetries int
	// InitialRetryBackoff seeds the exponential retry schedule.
	InitialRetryBackoff time.Duration
}

// Client talks to the remote transcription service. The remote path never
// diarizes; it returns plain timed segments.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a remote transcription client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "cloudstt"),
	}
}

// WithHTTPClient overrides the underlying HTTP client (for testing).
func (c *Client) WithHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type statusResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Language string `json:"language,omitempty"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments,omitempty"`
}

// Transcribe uploads a normalized WAV file and polls until the service
// finishes, returning the transcript as an artifact with no speaker turns.
func (c *Client) Transcribe(ctx context.Context, source, language string) (*align.Artifact, error) {
	id, err := c.submit(ctx, source, language)
	if err != nil {
		return nil, err
	}
	c.logger.Info("transcription submitted",
		logging.String("remote_id", id),
		logging.String(logging.FieldEventType, "cloudstt_submitted"),
	)
	return c.poll(ctx, id)
}

// Ping verifies the service is reachable; used by preflight.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/healthz"), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "preflight", "remote-stt",
			"Remote transcription service unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return services.Wrap(services.ErrTransient, "preflight", "remote-stt",
			fmt.Sprintf("Remote transcription service returned HTTP %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) submit(ctx context.Context, source, language string) (string, error) {
	file, err := os.Open(source)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "transcribing", "remote-stt",
			"Normalized audio missing; rerun preprocessing", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(source))
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", fmt.Errorf("build upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	payload := body.Bytes()

	var submitted submitResponse
	err = c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/transcriptions"), bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		c.authorize(req)
		return c.doJSON(req, &submitted)
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribing", "remote-stt",
			"Transcription upload failed", err)
	}
	if submitted.ID == "" {
		return "", services.Wrap(services.ErrExternalTool, "transcribing", "remote-stt",
			"Remote service accepted the upload without an id", nil)
	}
	return submitted.ID, nil
}

func (c *Client) poll(ctx context.Context, id string) (*align.Artifact, error) {
	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	pollCtx := ctx
	if c.cfg.PollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, c.cfg.PollTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, services.Wrap(services.ErrTimeout, "transcribing", "remote-stt",
				"Timed out waiting for the remote transcription", pollCtx.Err())
		case <-ticker.C:
		}

		var status statusResponse
		err := c.retry(pollCtx, func() error {
			req, err := http.NewRequestWithContext(pollCtx, http.MethodGet, c.endpoint("/v1/transcriptions/"+id), nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			c.authorize(req)
			return c.doJSON(req, &status)
		})
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "transcribing", "remote-stt",
				"Transcription status check failed", err)
		}

		switch strings.ToLower(status.Status) {
		case "completed":
			return buildArtifact(status), nil
		case "failed":
			return nil, services.Wrap(services.ErrExternalTool, "transcribing", "remote-stt",
				fmt.Sprintf("Remote transcription failed: %s", status.Error), nil)
		case "queued", "processing", "":
			// keep polling
		default:
			return nil, services.Wrap(services.ErrExternalTool, "transcribing", "remote-stt",
				fmt.Sprintf("Remote service reported unknown status %q", status.Status), nil)
		}
	}
}

func buildArtifact(status statusResponse) *align.Artifact {
	artifact := &align.Artifact{Language: status.Language}
	for _, seg := range status.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		artifact.Segments = append(artifact.Segments, align.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	return artifact
}

// retry runs op under the exponential schedule, giving up after MaxRetries
// attempts. 4xx responses are permanent; network errors and 5xx retry.
func (c *Client) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	if c.cfg.InitialRetryBackoff > 0 {
		bo.InitialInterval = c.cfg.InitialRetryBackoff
	}
	retries := uint64(3)
	if c.cfg.MaxRetries > 0 {
		retries = uint64(c.cfg.MaxRetries)
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx))
}

func (c *Client) doJSON(req *http.Request, target any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("server error: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("request rejected: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.URL, "/") + path
}
