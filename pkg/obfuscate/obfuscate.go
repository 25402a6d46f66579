// Package obfuscate hides the sync access token from casual inspection of
// saved and exported files.
//
// This is obfuscation, not encryption. The key is fixed and compiled into the
// binary, so anyone with the source can reverse the transform. It only keeps
// the token from appearing as readable text on disk.
package obfuscate

import (
	"encoding/hex"
	"fmt"
)

const key = "OBFUSCATION_ONLY"

// Encode XORs the UTF-8 bytes of secret with the repeating key and hex-encodes the result.
func Encode(secret string) string {
	return hex.EncodeToString(xor([]byte(secret)))
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode obfuscated token: %w", err)
	}
	return string(xor(raw)), nil
}

func xor(input []byte) []byte {
	out := make([]byte, len(input))
	for i, b := range input {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
