// Package plist encodes and decodes the self-describing binary
// property-list payload carried inside a frame.Record of kind Payload. The
// container format itself is delegated to howett.net/plist; this package
// layers on the two wire-compatibility wrinkles the peer requires: a
// 31-year date-epoch offset on an enumerated set of date fields, and
// opaque-byte wrapping of any string that is not pure ASCII-printable text.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package plist

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"howett.net/plist"
)

// DecodeError wraps a malformed payload's underlying parse failure. Per
// A.7 this is never session-fatal: the caller drops the one record and
// keeps the session running, unlike a wire/frame.FramingError.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string { return "plist: decode: " + e.cause.Error() }
func (e *DecodeError) Unwrap() error { return e.cause }
func (e *DecodeError) Fatal() bool   { return false }

// dateEpochYears is the 31-year shift pysiriproxy's peer applies to
// date-bearing fields, relative to the standard Unix epoch. plist.py's
// __fixItems computes this with date.replace(year=date.year + 31) —
// calendar-year arithmetic, not a flat duration, so it absorbs whatever
// leap days fall inside the span rather than drifting by a few days near
// a year boundary. Exact accuracy of the 31-year figure itself for
// speakable-vs-displayed dates is observed behavior, not specification
// (see the design notes' open question); this package reproduces it
// unconditionally.
const dateEpochYears = 31

// dateFields lists the object fields whose values are Unix-epoch seconds on
// the wire but represent a date 31 years in the future of that timestamp.
var dateFields = map[string]bool{
	"birthday":               true,
	"date":                   true,
	"dueDate":                true,
	"theatricalReleaseDate":  true,
}

// unicodeFields lists the object fields whose values are always display
// text and must be decoded/encoded as UTF-8 strings rather than raw bytes.
var unicodeFields = map[string]bool{
	"label":                     true,
	"selectionResponse":         true,
	"speakableSelectionResponse": true,
	"speakableText":             true,
	"street":                    true,
	"text":                      true,
	"title":                     true,
}

// Map is the decoded/pre-encode representation of an object's properties:
// a nested mapping of native Go values (string, []byte, int64, float64,
// bool, time.Time, []any, Map).
type Map map[string]any

// Decode parses a binary property-list payload into a nested Map, applying
// the date-epoch offset to any field in dateFields.
func Decode(payload []byte) (Map, error) {
	var raw map[string]any
	if err := plist.Unmarshal(payload, &raw); err != nil {
		return nil, errors.WithStack(&DecodeError{cause: err})
	}
	return fixDecoded(raw).(Map), nil
}

func fixDecoded(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = fixDecodedField(k, val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = fixDecoded(val)
		}
		return out
	default:
		return v
	}
}

func fixDecodedField(key string, v any) any {
	if dateFields[key] {
		if secs, ok := asSeconds(v); ok {
			return time.Unix(secs, 0).UTC().AddDate(dateEpochYears, 0, 0)
		}
	}
	if unicodeFields[key] {
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	}
	return fixDecoded(v)
}

func asSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Encode serializes a Map back to binary property-list form, subtracting
// the date-epoch offset from dateFields and wrapping any non-ASCII-printable
// string as opaque Data so its bytes survive byte-for-byte.
func Encode(m Map) ([]byte, error) {
	fixed := fixForEncode(m)
	var buf bytes.Buffer
	enc := plist.NewBinaryEncoder(&buf)
	if err := enc.Encode(fixed); err != nil {
		return nil, errors.Wrap(err, "plist: encode")
	}
	return buf.Bytes(), nil
}

func fixForEncode(v any) any {
	switch t := v.(type) {
	case Map:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = fixFieldForEncode(k, val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = fixFieldForEncode(k, val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = fixForEncode(val)
		}
		return out
	case string:
		return wrapString(t)
	default:
		return v
	}
}

func fixFieldForEncode(key string, v any) any {
	if dateFields[key] {
		if t, ok := v.(time.Time); ok {
			return t.AddDate(-dateEpochYears, 0, 0).Unix()
		}
	}
	if unicodeFields[key] {
		if s, ok := v.(string); ok {
			return s // always text, never opaque-wrapped
		}
	}
	return fixForEncode(v)
}

// wrapString returns the string unchanged if it is pure ASCII-printable
// text; otherwise it returns the same bytes as a plist.Data-compatible
// []byte so the bplist encoder emits an opaque byte string instead of UTF-8
// text, preserving the original bytes exactly.
func wrapString(s string) any {
	if isASCIIPrintable(s) {
		return s
	}
	return []byte(s)
}

func isASCIIPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			// tab/newline/cr are "printable" in Python's string.printable
			// set too; the peer tolerates them as text.
			if c != '\t' && c != '\n' && c != '\r' {
				return false
			}
		}
	}
	return true
}
