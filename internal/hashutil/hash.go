package hashutil

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/bloops-games/biasbingo/internal/bytespool"
)

// ETag returns a quoted sha1 of the concatenated parts, usable as an HTTP entity tag.
func ETag(parts ...[]byte) string {
	buf := bytespool.Get()
	defer bytespool.Put(buf)

	buf.WriteByte('"')
	buf.WriteString(Sha1Hex(parts...))
	buf.WriteByte('"')
	return buf.String()
}

func Sha1Hex(parts ...[]byte) string {
	hash := sha1.New()
	for _, p := range parts {
		hash.Write(p)
	}
	return hex.EncodeToString(hash.Sum(nil))
}
