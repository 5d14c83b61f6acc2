package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ownerHeader = "X-User-ID"

const maxBodyBytes = 1 << 20 // 1 MiB

var errMissingOwner = errors.New("missing " + ownerHeader + " header")

// ownerID returns the authenticated user identity injected upstream.
// Authentication itself happens before this service; a request without the
// header is rejected.
func ownerID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(ownerHeader))
	if id == "" {
		return "", errMissingOwner
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// apiDate accepts either RFC 3339 timestamps or plain dates.
type apiDate struct {
	time.Time
}

func (d *apiDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fmt.Errorf("invalid date %q, want RFC 3339 or YYYY-MM-DD", raw)
	}
	d.Time = t
	return nil
}

// MarshalJSON emits null for unset dates. omitempty cannot skip struct
// fields, so null is the explicit "no date" on the wire.
func (d apiDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}
