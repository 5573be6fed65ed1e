package booking

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const bookingIDPrefix = "MIX-"

// NewBookingID returns MIX-<base36 unix millis>-<8 hex>, upper-cased.
func NewBookingID(now time.Time) (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	return strings.ToUpper(bookingIDPrefix + ts + "-" + hex.EncodeToString(buf[:])), nil
}
