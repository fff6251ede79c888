package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const ownerHeader = "X-Owner-ID"

var errMissingOwner = errors.New("missing " + ownerHeader + " header")

// ownerID extracts the owner from the request header. Every /api route
// is scoped to one owner.
func ownerID(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(ownerHeader))
	if owner == "" {
		return "", errMissingOwner
	}
	return owner, nil
}

// monthParams holds a requested projection month, defaulting to the
// current one.
type monthParams struct {
	Year  int
	Month int
}

func parseMonthParams(query url.Values) (monthParams, error) {
	now := time.Now().UTC()
	params := monthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid month %q", v)
		}
		params.Month = m
	}

	return params, nil
}

const maxBodySize = 1 << 20 // 1 MiB

// decodeBody parses a JSON request body into dst, rejecting unknown
// fields and oversized payloads.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
