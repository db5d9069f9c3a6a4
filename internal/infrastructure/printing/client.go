package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	app "github.com/labelprint/labelprint/internal/application/printing"
	"github.com/labelprint/labelprint/internal/domain/printing"
	"github.com/labelprint/labelprint/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultUserAgent     = "labelprint/1.0"
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 1 << 20
	// LabelFilename is the file name of the uploaded image part
	LabelFilename = "label.png"
)

// ClientConfig contains configuration for the print backend client
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// Client talks to the print backend. It lists printers and submits labels.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ app.PrinterSource  = (*Client)(nil)
	_ app.PrintTransport = (*Client)(nil)
)

// NewClient creates a new print backend client
func NewClient(config ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", config.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", config.BaseURL)
	}
	if config.Timeout == 0 {
		config.Timeout = defaultClientTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// ListPrinters fetches the printer catalog with GET /printers
func (c *Client) ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/printers", nil), nil)
	if err != nil {
		return nil, catalogError(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, catalogError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, catalogError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, catalogError(
			fmt.Errorf("status %d: %s", resp.StatusCode, errorMessage(resp, body)))
	}

	var printers []printing.PrinterDescriptor
	if err := json.Unmarshal(body, &printers); err != nil {
		return nil, catalogError(fmt.Errorf("invalid printer list: %w", err))
	}
	return printers, nil
}

// Submit sends the payload with POST /print as a multipart form
func (c *Client) Submit(ctx context.Context, payload *printing.PrintJobPayload) (*app.Receipt, error) {
	body, contentType, err := encodePayload(payload)
	if err != nil {
		return nil, &printing.SubmissionError{Message: err.Error(), Cause: err}
	}

	query := url.Values{}
	query.Set("printer", payload.PrinterName())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/print", query), body)
	if err != nil {
		return nil, &printing.SubmissionError{Message: err.Error(), Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &printing.SubmissionError{Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &printing.SubmissionError{StatusCode: resp.StatusCode, Message: err.Error(), Cause: err}
	}

	c.logger.Debug("label submitted",
		zap.String("printer", payload.PrinterName()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", payload.ImageSize()),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &printing.SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp, respBody),
		}
	}

	var envelope struct {
		Data app.Receipt `json:"data"`
	}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			c.logger.Warn("unexpected print response", zap.Error(err))
		}
	}
	return &envelope.Data, nil
}

func catalogError(cause error) error {
	return shared.WrapDomainError(printing.CodeCatalogFetchFailed, printing.ErrCatalogFetchFailed.Message, cause)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// encodePayload builds the multipart body: the PNG image and the pixel size
func encodePayload(payload *printing.PrintJobPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, LabelFilename))
	header.Set("Content-Type", payload.ContentType())
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload.Image()); err != nil {
		return nil, "", err
	}

	dims := payload.Dimensions()
	if err := w.WriteField("width", FormatPixels(dims.Width)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("height", FormatPixels(dims.Height)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// FormatPixels formats a pixel length with the fewest digits that parse
// back to the same value
func FormatPixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// errorMessage picks the most useful text of a failed response: the
// envelope's error message, the raw body, the status text, or "unknown error"
func errorMessage(resp *http.Response, body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil && strings.TrimSpace(envelope.Error.Message) != "" {
			return envelope.Error.Message
		}
		if strings.TrimSpace(envelope.Message) != "" {
			return envelope.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return app.DetailUnknownError
}
