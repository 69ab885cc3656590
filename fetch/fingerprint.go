package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint derives the cache key of a request. The config is serialized
// with the Adapter removed and the method normalized; encoding/json writes
// map keys in sorted order at every level, so configs that differ only in
// map insertion order share a key.
func Fingerprint(cfg *RequestConfig) (string, error) {
	c := cfg.Clone()
	c.Adapter = nil
	c.Method = normalizeMethod(c.Method)

	canonical, err := json.Marshal(c)
	if err != nil {
		return "", newError(ErrorTypeFingerprint, "request config is not serializable", err).withRequest(cfg, 0)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
