// Package api implements the HTTP client for the conversion backend. The
// backend performs the actual downloading and transcoding; this client only
// consumes its polled endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/voxtui/vox/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Vox/1.0"

	// The status poller fires once per second; the limiter caps total
	// request pressure on the backend well above that.
	requestsPerSecond = 8
)

// Client talks to the conversion backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a backend API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:  logger,
	}
}

// doRequest performs a rate-limited request and returns the response body.
// Network failure maps to domain.ErrServerOffline; a non-2xx status maps to
// domain.ErrProtocol.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("backend request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("backend request error", "path", path, "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("%w: status %d", domain.ErrProtocol, resp.StatusCode)
	}

	return respBody, nil
}

// SubmitDownload submits a batch of conversion jobs.
func (c *Client) SubmitDownload(ctx context.Context, subs []domain.Submission) error {
	payload, err := json.Marshal(downloadRequest{Tasks: subs})
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/download", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return checkEnvelope(body)
}

// TaskStatuses fetches the full task snapshot, keyed by task id.
func (c *Client) TaskStatuses(ctx context.Context) (map[string]domain.Task, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/status", "", nil)
	if err != nil {
		return nil, err
	}

	var tasks map[string]domain.Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		c.logger.Error("status parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}

	// The id lives in the map key; copy it onto the value.
	for id, t := range tasks {
		t.ID = id
		tasks[id] = t
	}
	return tasks, nil
}

// ClearCompleted removes terminal tasks from the backend's snapshot.
func (c *Client) ClearCompleted(ctx context.Context) error {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/clear", "application/json", nil)
	if err != nil {
		return err
	}
	return checkEnvelope(body)
}

// ListFiles fetches the authoritative converted-file listing.
func (c *Client) ListFiles(ctx context.Context) ([]domain.File, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/files", "", nil)
	if err != nil {
		return nil, err
	}

	var resp filesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrProtocol, orUnknown(resp.Error))
	}
	return resp.Files, nil
}

// ExtractRequest describes a local-file extraction upload.
type ExtractRequest struct {
	FileName string
	Content  io.Reader
	Size     int64
	Format   string
	OutName  string // optional output filename
}

// LocalExtract uploads a local video for server-side audio extraction. The
// file streams through the request body rather than being buffered, so memory
// use stays flat regardless of video size. onProgress receives (sent, total)
// byte counts as the body is transferred; total is exact, computed up front
// from req.Size plus the multipart envelope overhead.
func (c *Client) LocalExtract(ctx context.Context, req ExtractRequest, onProgress func(sent, total int64)) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	total, err := extractBodySize(mw.Boundary(), req)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	writeErr := make(chan error, 1)
	go func() {
		err := writeExtractBody(mw, req)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
		writeErr <- err
	}()

	body := &countingReader{r: pr, total: total, onProgress: onProgress}
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/local-extract", mw.FormDataContentType(), body)
	if err != nil {
		// The transport closes the pipe when the request dies, so the
		// writer goroutine has already exited. Surface its error when
		// it is the root cause rather than a consequence.
		if werr := <-writeErr; werr != nil && !errors.Is(werr, io.ErrClosedPipe) {
			return fmt.Errorf("failed to read local file: %w", werr)
		}
		return err
	}
	return checkEnvelope(respBody)
}

// writeExtractBody emits the multipart parts in the order the backend
// expects, streaming the file content.
func writeExtractBody(mw *multipart.Writer, req ExtractRequest) error {
	part, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return err
	}
	if err := mw.WriteField("format", req.Format); err != nil {
		return err
	}
	if req.OutName != "" {
		if err := mw.WriteField("filename", req.OutName); err != nil {
			return err
		}
	}
	return nil
}

// extractBodySize computes the encoded body length without reading the file:
// the envelope is rendered with the real boundary and zero file bytes, then
// the declared file size is added back.
func extractBodySize(boundary string, req ExtractRequest) (int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary); err != nil {
		return 0, err
	}
	if err := writeExtractBody(mw, ExtractRequest{
		FileName: req.FileName,
		Content:  strings.NewReader(""),
		Format:   req.Format,
		OutName:  req.OutName,
	}); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}
	return int64(buf.Len()) + req.Size, nil
}

// checkEnvelope parses the backend's {success, error} wrapper.
func checkEnvelope(body []byte) error {
	var resp apiEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", domain.ErrProtocol, orUnknown(resp.Error))
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown error"
	}
	return s
}

// countingReader reports cumulative bytes read to a progress callback.
type countingReader struct {
	r          io.Reader
	sent       int64
	total      int64
	onProgress func(sent, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.onProgress != nil {
			c.onProgress(c.sent, c.total)
		}
	}
	return n, err
}
