package files

import (
	"crypto/md5"
	"encoding/hex"
)

// ContentHash returns the hex MD5 digest of data. The digest is the dedup
// key stored alongside the metadata, so it must stay stable across
// releases.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
