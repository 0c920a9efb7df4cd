package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ContentHash returns the lowercase hex SHA-256 of the canonical
// serialization of an output: strings hash as their UTF-8 bytes, everything
// else is JSON-serialized first. encoding/json sorts map keys, which keeps
// the serialization deterministic.
func ContentHash(output any) string {
	var data []byte
	switch v := output.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		serialized, err := json.Marshal(output)
		if err != nil {
			// Unserializable outputs still need a stable identity.
			serialized = []byte("unserializable")
		}
		data = serialized
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
