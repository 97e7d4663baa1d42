package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// HashString digests input to a hex string. Used for reply-cache keys, where
// the digest only needs to be stable and short, not cryptographic.
func HashString(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
