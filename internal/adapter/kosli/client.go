package kosli

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
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// Options configure the Kosli API client.
type Options struct {
	Host         string // e.g. https://app.kosli.com
	Org          string
	Token        string
	Flow         string
	MaxRetries   int
	RetryWaitMin time.Duration // 0 = library default
	RetryWaitMax time.Duration // 0 = library default
}

// Client implements port.EvidenceRegistry and port.Attester against the
// Kosli REST API.
type Client struct {
	opts       Options
	httpClient *retryablehttp.Client
}

// NewClient creates a Kosli API client.
func NewClient(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.CheckRetry = checkRetry
	// Hand the last response back instead of a generic "giving up" error, so
	// the caller can still tell a conflict from an outage.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = slog.Default()
	opts.Host = strings.TrimRight(opts.Host, "/")
	return &Client{opts: opts, httpClient: rc}
}

// checkRetry retries what the default policy retries, plus 409: the server
// answers a lock conflict with it.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	retry, retryErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if retryErr != nil {
		return false, retryErr
	}
	if retry {
		return true, nil
	}
	return resp != nil && resp.StatusCode == http.StatusConflict, nil
}

// formItem is one part of a multipart request: a JSON field or a file.
type formItem struct {
	field    string
	json     any    // marshalled into the part when set
	file     string // path of a file to upload
	fileName string // name for an in-memory file part
	data     []byte // in-memory file contents
}

func (c *Client) url(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.opts.Host + "/api/v2/" + strings.Join(escaped, "/")
}

// do sends a request and returns the response body. Non-2xx statuses are
// mapped onto the port sentinel errors.
func (c *Client) do(ctx context.Context, method, u string, form []formItem) ([]byte, error) {
	var (
		body        []byte
		contentType string
	)
	if len(form) > 0 {
		var err error
		contentType, body, err = multipartBody(form)
		if err != nil {
			return nil, fmt.Errorf("build %s %s: %w", method, u, err)
		}
	}

	var reqBody any
	if body != nil {
		reqBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s %s: %v", port.ErrTransient, method, u, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response from %s: %v", port.ErrTransient, u, err)
	}
	slog.Debug("kosli request", "method", method, "url", u, "status", resp.StatusCode)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return respBody, nil
	}
	return nil, statusError(resp.StatusCode, respBody)
}

func statusError(status int, body []byte) error {
	msg := errorMessage(body)
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", port.ErrTrailNotFound, msg)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", port.ErrTrailExists, msg)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: kosli API error (%d): %s", port.ErrTransient, status, msg)
	default:
		return fmt.Errorf("kosli API error (%d): %s", status, msg)
	}
}

// errorMessage pulls the message out of a Kosli error body. The server sends
// either a JSON string or an object with "message" and optional "errors".
func errorMessage(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return strings.TrimSpace(string(body))
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		msg, ok := t["message"].(string)
		if !ok {
			return fmt.Sprintf("%v", t)
		}
		msg = strings.TrimSpace(strings.Split(msg, "You have requested")[0])
		if errs, ok := t["errors"]; ok {
			return fmt.Sprintf("%s: %v", msg, errs)
		}
		return msg
	default:
		return strings.TrimSpace(string(body))
	}
}

func multipartBody(items []formItem) (string, []byte, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, item := range items {
		switch {
		case item.json != nil:
			part, err := w.CreateFormField(item.field)
			if err != nil {
				return "", nil, err
			}
			data, err := json.MarshalIndent(item.json, "", "    ")
			if err != nil {
				return "", nil, fmt.Errorf("marshal %s: %w", item.field, err)
			}
			if _, err := part.Write(data); err != nil {
				return "", nil, err
			}
		case item.file != "":
			if err := writeFilePart(w, item.field, item.file); err != nil {
				return "", nil, err
			}
		default:
			part, err := w.CreateFormFile(item.field, item.fileName)
			if err != nil {
				return "", nil, err
			}
			if _, err := part.Write(item.data); err != nil {
				return "", nil, err
			}
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

func writeFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// isAlreadyThere reports whether err means the resource already exists.
func isAlreadyThere(err error) bool {
	return errors.Is(err, port.ErrTrailExists)
}
