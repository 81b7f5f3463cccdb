package backend

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

const envelopeHeaderSize = 8

// maxEnvelopeExpiry is the latest instant unix nanoseconds can hold
// (year 2262). Later expiries are stored as this instant.
var maxEnvelopeExpiry = time.Unix(0, math.MaxInt64)

var errShortEnvelope = errors.New("envelope shorter than header")

// encodeEnvelope prefixes value with its expiry as big-endian unix
// nanoseconds. The zero time is stored as 0 and never expires.
func encodeEnvelope(value []byte, expiresAt time.Time) []byte {
	buf := make([]byte, envelopeHeaderSize+len(value))
	if expiresAt.After(maxEnvelopeExpiry) {
		expiresAt = maxEnvelopeExpiry
	}
	if !expiresAt.IsZero() {
		binary.BigEndian.PutUint64(buf, uint64(expiresAt.UnixNano()))
	}
	copy(buf[envelopeHeaderSize:], value)
	return buf
}

// decodeEnvelope splits raw into its value and expiry. The returned value
// aliases raw.
func decodeEnvelope(raw []byte) ([]byte, time.Time, error) {
	if len(raw) < envelopeHeaderSize {
		return nil, time.Time{}, errShortEnvelope
	}
	var expiresAt time.Time
	if ns := binary.BigEndian.Uint64(raw); ns != 0 {
		expiresAt = time.Unix(0, int64(ns))
	}
	return raw[envelopeHeaderSize:], expiresAt, nil
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
