// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request data. Bill payloads
// arrive either form encoded (htmx) or as JSON (API clients and scripts).

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bills/internal/core"
)

// maxBodyBytes caps request bodies; bill payloads are tiny.
const maxBodyBytes = 64 << 10

var errMalformedRequest = errors.New("malformed request")

// MonthParams holds parsed year/month values from request parameters.
// Year is zero when no month was requested.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters. With
// neither set it returns the zero value. A month without a year uses the
// current year. Non-numeric values are malformed; an out of range month is
// core.ErrInvalidMonth.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	yearStr := strings.TrimSpace(query.Get("year"))
	monthStr := strings.TrimSpace(query.Get("month"))
	if yearStr == "" && monthStr == "" {
		return MonthParams{}, nil
	}

	params := MonthParams{Year: now.Year(), Month: int(now.Month())}
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1 {
			return MonthParams{}, errMalformedRequest
		}
		params.Year = y
	}
	if monthStr != "" {
		m, err := strconv.Atoi(monthStr)
		if err != nil {
			return MonthParams{}, errMalformedRequest
		}
		params.Month = m
	}
	if params.Month < 1 || params.Month > 12 {
		return MonthParams{}, core.ErrInvalidMonth
	}
	return params, nil
}

// parseBillID reads the {id} path value.
func parseBillID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errMalformedRequest
	}
	return id, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when the content type or the first byte
// says so, and as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(p.body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil || p.jsonData == nil {
			p.err = errMalformedRequest
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = errMalformedRequest
	}
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string. Numbers keep their
// textual form so amounts are stored as sent.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
