package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/edit0rsky/NumberGame/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % size.
func Index(date time.Time, salt string, size int) int {
	if size <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(size))
}

// Secret is the code of the day: the Index-th permutation of all digits.
func Secret(date time.Time, salt string, digits int) game.Code {
	all := game.GenerateAll(game.AllDigits(), digits).Codes()
	return all[Index(date, salt, len(all))]
}
