// Package apiclient sends the JSON and multipart requests used by the directory, gateway and identity clients.
//
// Every failed call returns a *RequestError and logs three debug lines
// (the target URL, the request options with credentials and bodies redacted, and the error).
// Calls are not retried. The http.Client timeout is set from HTTP_CLIENT_TIMEOUT and ctx cancels in-flight calls.
package apiclient

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
	"os"
	"path/filepath"
	"time"

	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/version"
)

const (
	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 10 << 20

	// maxErrorBodyBytes caps the body text kept in a KindStatus error
	maxErrorBodyBytes = 512
)

// Part is one part of a multipart/form-data request.
// Reader is used when set, otherwise the file at Path is opened for the call and closed afterwards.
type Part struct {
	Name     string
	FileName string
	Reader   io.Reader
	Path     string
}

// Options describe a request. At most one of JSON, Body and Parts should be set.
type Options struct {
	Credential Credential
	Headers    map[string]string
	Accept     string

	// JSON is marshalled as the request body with Content-Type application/json
	JSON any

	// Body is sent as is (set Content-Type in Headers)
	Body []byte

	Parts []Part
}

// Response is a 2xx response with a JSON body
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// MarshalJSON returns the raw response body so a Response can be relayed unchanged
func (r *Response) MarshalJSON() ([]byte, error) {
	if len(r.Body) == 0 {
		return []byte("null"), nil
	}
	return r.Body, nil
}

// Doer is implemented by Executor. The service clients depend on it so tests can substitute a fake.
type Doer interface {
	Do(ctx context.Context, method, url string, opts Options) (*Response, error)
}

// Executor performs requests against the network services.
type Executor struct {
	httpClient *http.Client
	userAgent  string
}

// NewExecutor returns an Executor whose http.Client times out after timeout
func NewExecutor(timeout time.Duration) *Executor {
	return NewExecutorWithClient(&http.Client{Timeout: timeout})
}

// NewExecutorWithClient is used by tests to supply an httptest client
func NewExecutorWithClient(client *http.Client) *Executor {
	return &Executor{
		httpClient: client,
		userAgent:  "dbc-connect/" + version.Get().Version,
	}
}

// Do sends the request and returns the decoded JSON response.
// Failures are returned as *RequestError (see Kind).
func (e *Executor) Do(ctx context.Context, method, url string, opts Options) (*Response, error) {
	resp, err := e.do(ctx, method, url, opts)
	if err != nil {
		reqLogger := logger.ContextRequestLogger(ctx)
		reqLogger.Debug("api request error", slog.String("url", url))
		reqLogger.Debug("api request error", slog.String("options", opts.describe(method)))
		reqLogger.Debug("api request error", slog.String("error", err.Error()))
		return nil, err
	}
	return resp, nil
}

func (e *Executor) do(ctx context.Context, method, url string, opts Options) (*Response, error) {
	transportErr := func(err error) *RequestError {
		return &RequestError{Kind: KindTransport, Method: method, URL: url, Err: err}
	}

	body, contentType, err := opts.encodeBody()
	if err != nil {
		return nil, transportErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, transportErr(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", e.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if opts.Accept != "" {
		req.Header.Set("Accept", opts.Accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.Credential != nil {
		req.Header.Set("Authorization", opts.Credential.authorization())
	}

	// #nosec G704 -- URLs are built from configured base URLs with escaped path segments; message endpoints are checked by gateway.CheckEndpointURL
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportErr(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := data
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		_, withUserToken := opts.Credential.(UserToken)
		return nil, &RequestError{
			Kind:          KindStatus,
			Method:        method,
			URL:           url,
			StatusCode:    resp.StatusCode,
			Body:          string(bytes.TrimSpace(snippet)),
			withUserToken: withUserToken,
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &RequestError{Kind: KindDecode, Method: method, URL: url, StatusCode: resp.StatusCode, Err: errors.New("empty response body")}
	}
	if !json.Valid(data) {
		return nil, &RequestError{Kind: KindDecode, Method: method, URL: url, StatusCode: resp.StatusCode, Err: errors.New("response body is not valid JSON")}
	}

	return &Response{StatusCode: resp.StatusCode, Body: json.RawMessage(data)}, nil
}

// encodeBody builds the request body and its content type
func (o Options) encodeBody() (io.Reader, string, error) {
	switch {
	case len(o.Parts) > 0:
		return o.encodeMultipart()
	case o.JSON != nil:
		b, err := json.Marshal(o.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	case o.Body != nil:
		return bytes.NewReader(o.Body), "", nil
	default:
		return nil, "", nil
	}
}

// encodeMultipart buffers the parts so the request has a Content-Length and file handles are closed before the call
func (o Options) encodeMultipart() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, p := range o.Parts {
		if err := writePart(mw, p); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func writePart(mw *multipart.Writer, p Part) error {
	r := p.Reader
	fileName := p.FileName

	if r == nil {
		f, err := os.Open(p.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s part: %w", p.Name, err)
		}
		defer f.Close()
		r = f
		if fileName == "" {
			fileName = filepath.Base(p.Path)
		}
	}
	if fileName == "" {
		fileName = p.Name
	}

	w, err := mw.CreateFormFile(p.Name, fileName)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", p.Name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("failed to write %s part: %w", p.Name, err)
	}
	return nil
}

// describe renders the options for the debug log with credentials and bodies redacted
func (o Options) describe(method string) string {
	d := struct {
		Method        string            `json:"method"`
		Headers       map[string]string `json:"headers,omitempty"`
		Accept        string            `json:"accept,omitempty"`
		Authorization string            `json:"authorization,omitempty"`
		Body          string            `json:"body,omitempty"`
		Parts         []string          `json:"parts,omitempty"`
	}{
		Method:  method,
		Headers: o.Headers,
		Accept:  o.Accept,
	}

	switch o.Credential.(type) {
	case UserToken:
		d.Authorization = "JWT [redacted]"
	case OperationalToken:
		d.Authorization = "Token [redacted]"
	}

	switch {
	case o.JSON != nil:
		d.Body = fmt.Sprintf("json %T", o.JSON)
	case o.Body != nil:
		d.Body = fmt.Sprintf("%d bytes", len(o.Body))
	}
	for _, p := range o.Parts {
		if p.Path != "" {
			d.Parts = append(d.Parts, p.Name+"="+p.Path)
		} else {
			d.Parts = append(d.Parts, p.Name)
		}
	}

	b, err := json.Marshal(d)
	if err != nil {
		return method
	}
	return string(b)
}
