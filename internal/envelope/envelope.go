// Package envelope defines the normalized JSON body every façade route returns.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Status is the outcome carried by every envelope.
type Status string

const (
	StatusHealthy Status = "healthy"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Envelope is serialized as a flat JSON object: status, optional message, and
// every Payload key at the top level. Status and Message take precedence over
// payload keys with the same name.
type Envelope struct {
	Status  Status
	Message string
	Payload map[string]any
}

// Healthy builds a liveness envelope.
func Healthy(message string, payload map[string]any) Envelope {
	return Envelope{Status: StatusHealthy, Message: message, Payload: payload}
}

// Success builds a success envelope.
func Success(message string, payload map[string]any) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Payload: payload}
}

// Error builds an error envelope whose message is the error text.
func Error(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Status: StatusError, Message: msg}
}

// MarshalJSON flattens the payload next to status and message. Status and
// message come first; payload keys follow in sorted order.
func (e Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "status", e.Status); err != nil {
		return nil, err
	}
	if e.Message != "" {
		buf.WriteByte(',')
		if err := writeField(&buf, "message", e.Message); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		if k == "status" || k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeField(&buf, k, e.Payload[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// UnmarshalJSON splits status and message back out of the flat object.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Envelope{}
	if v, ok := raw["status"]; ok {
		if err := json.Unmarshal(v, &e.Status); err != nil {
			return err
		}
		delete(raw, "status")
	}
	if v, ok := raw["message"]; ok {
		if err := json.Unmarshal(v, &e.Message); err != nil {
			return err
		}
		delete(raw, "message")
	}
	if len(raw) == 0 {
		return nil
	}
	e.Payload = make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		e.Payload[k] = val
	}
	return nil
}

// Write encodes env as the sole response body with the given status code.
func Write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
