// Package cos provides common low-level types and utilities shared by the
// proxy, session, and dispatch packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// Alphabet for short internal trace IDs, carried over from the teacher's
// GenUUID but reserved for log correlation only: wire-visible refId/aceId
// use google/uuid's canonical hyphenated form instead, per the frame format.
const traceABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const (
	lenTraceID    = 9
	lenSessionTie = 8
	tooLongID     = 32
)

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

func InitShortID(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, traceABC, seed)
}

// GenTraceID produces a short, log-friendly correlation ID for internal
// diagnostics, distinct from the UUID-formatted refId/aceId values that
// travel on the wire.
func GenTraceID() string {
	var h, t string
	uuid := sid.MustGenerate()
	if !isAlpha(uuid[0]) {
		tie := int(rtie.Add(1))
		h = string(rune('A' + tie%26))
	}
	if c := uuid[len(uuid)-1]; c == '-' || c == '_' {
		tie := int(rtie.Add(1))
		t = string(rune('a' + tie%26))
	}
	return h + uuid + t
}

func IsValidTraceID(id string) bool {
	return len(id) >= lenTraceID && IsAlphaNice(id)
}

// GenSessionID derives a short, stable identifier from a client's remote
// address, for internal diagnostics (not the wire protocol).
func GenSessionID(remoteAddr string) string {
	digest := xxhash.Checksum64S([]byte(remoteAddr), 0)
	id := strconv.FormatUint(digest, 36)
	if len(id) > lenSessionTie {
		return id[:lenSessionTie]
	}
	return id
}

func CryptoRandS(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	const abc = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	out := make([]byte, n)
	for i, c := range b {
		out[i] = abc[int(c)%len(abc)]
	}
	return string(out)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsAlphaNice reports whether s is short enough and built only from letters,
// digits, dashes and underscores, never starting or ending on a separator.
func IsAlphaNice(s string) bool {
	l := len(s)
	if l > tooLongID || l == 0 {
		return false
	}
	for i := range l {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') {
			continue
		}
		if c != '-' && c != '_' {
			return false
		}
		if i == 0 || i == l-1 {
			return false
		}
	}
	return true
}

func CheckAlphaPlus(s, tag string) error {
	const tooLongName = 64
	l := len(s)
	if l > tooLongName {
		return fmt.Errorf("%s is too long: %d > %d(max length)", tag, l, tooLongName)
	}
	for i := range l {
		c := s[i]
		if isAlpha(c) || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		if c != '.' {
			return fmt.Errorf("%s is invalid: may only contain letters, numbers, dashes, underscores and dots", tag)
		}
		if i < l-1 && s[i+1] == '.' {
			return fmt.Errorf("%s is invalid: may not contain consecutive dots", tag)
		}
	}
	return nil
}

// GenTie is a 3-character fast tie-breaker, used to disambiguate trace IDs
// generated within the same clock tick.
func GenTie() string {
	tie := rtie.Add(1)
	b0 := traceABC[tie&0x3f]
	b1 := traceABC[-tie&0x3f]
	b2 := traceABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}
