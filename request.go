package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const contentTypeJSON = "application/json"

// Request describes one call through the resilient executor. Path is
// relative to the backend base URL and may carry a query string.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   Body
}

// Body is a replayable request payload. Encode is called once per attempt.
type Body interface {
	Encode() (contentType string, payload []byte, err error)
}

type jsonBody struct {
	value any
}

// JSONBody encodes v as JSON.
func JSONBody(v any) Body {
	return jsonBody{value: v}
}

func (b jsonBody) Encode() (string, []byte, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return "", nil, err
	}
	return contentTypeJSON, data, nil
}

type rawBody struct {
	contentType string
	data        []byte
}

// RawBody sends data as is. An empty contentType means application/json.
func RawBody(contentType string, data []byte) Body {
	cp := make([]byte, len(data))
	copy(cp, data)
	return rawBody{contentType: contentType, data: cp}
}

func (b rawBody) Encode() (string, []byte, error) {
	ct := b.contentType
	if ct == "" {
		ct = contentTypeJSON
	}
	return ct, b.data, nil
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

// FormData is a multipart/form-data payload. Its content type carries its
// own boundary and is never replaced with application/json.
type FormData struct {
	fields []struct{ name, value string }
	files  []formFile
}

// NewFormData returns an empty multipart payload.
func NewFormData() *FormData {
	return &FormData{}
}

// Set appends a text field.
func (f *FormData) Set(name, value string) *FormData {
	f.fields = append(f.fields, struct{ name, value string }{name, value})
	return f
}

// File appends a file part.
func (f *FormData) File(field, filename string, data []byte) *FormData {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.files = append(f.files, formFile{field: field, filename: filename, data: cp})
	return f
}

func (f *FormData) Encode() (string, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return "", nil, err
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return "", nil, err
		}
		if _, err := part.Write(file.data); err != nil {
			return "", nil, err
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "multipart/")
}

// encodedRequest is a Request resolved once so every attempt resends the same bytes.
type encodedRequest struct {
	method      string
	url         string
	header      http.Header
	contentType string
	payload     []byte
	hasBody     bool
}

func (c *Client) encodeRequest(req Request) (*encodedRequest, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if req.Path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}
	if u, err := url.Parse(req.Path); err != nil || u.IsAbs() || u.Host != "" {
		return nil, fmt.Errorf("%w: path must be relative to the backend", ErrInvalidRequest)
	}

	target := c.api.URL(req.Path)
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	out := &encodedRequest{
		method: method,
		url:    target,
		header: req.Header.Clone(),
	}
	if out.header == nil {
		out.header = http.Header{}
	}
	out.header.Del("Authorization")

	if req.Body != nil {
		ct, payload, err := req.Body.Encode()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		out.contentType = ct
		out.payload = payload
		out.hasBody = true
	}
	return out, nil
}

// build creates a fresh *http.Request carrying accessToken.
func (e *encodedRequest) build(ctx context.Context, accessToken, userAgent string) (*http.Request, error) {
	var body io.Reader
	if e.hasBody {
		body = bytes.NewReader(e.payload)
	}
	req, err := http.NewRequestWithContext(ctx, e.method, e.url, body)
	if err != nil {
		return nil, err
	}

	for k, v := range e.header {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	switch {
	case e.hasBody:
		req.Header.Set("Content-Type", e.contentType)
	case !isMultipart(req.Header.Get("Content-Type")):
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", contentTypeJSON)
	}
	if userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}
