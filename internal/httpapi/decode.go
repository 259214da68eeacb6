package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/uneedwind/webhook-gateway/internal/form"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errNotAnObject  = errors.New("request body must be a JSON object")
	errTrailingData = errors.New("request body contains trailing data after the JSON object")
)

// RequestError is the single failure result of the parsing and processing
// steps. The transport boundary turns it into an error envelope.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func requestError(op string, err error) *RequestError {
	return &RequestError{Op: op, Err: err}
}

// mediaType returns the lower-cased media type of a Content-Type header, or
// "" when it is absent or unparsable.
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, bodyError(err)
	}
	return body, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
	}
	return fmt.Errorf("read request body: %w", err)
}

// decodeObject decodes body as exactly one JSON object. Numbers are kept as
// json.Number so the payload echoes back unchanged.
func decodeObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotAnObject
	}
	return obj, nil
}

// decodeForm parses a urlencoded body into flat key/value pairs; the first
// value wins for repeated keys.
func decodeForm(body []byte) (map[string]any, error) {
	values, err := form.Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("invalid form payload: %w", err)
	}
	return form.First(values), nil
}

// decodeMultipart parses a multipart/form-data body under limit. Only the
// text fields are returned; file parts are dropped.
func decodeMultipart(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, bodyError(err)
		}
		return nil, fmt.Errorf("invalid multipart payload: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	return form.First(r.MultipartForm.Value), nil
}
