// Package crypto implements account secret hashing and verification.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for interactive logins on a local store).
// Every digest records the parameters it was derived with, so secrets
// hashed under older defaults keep verifying after a retune.
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
)

// SaltLen is the per-account salt size in bytes. The salt lives in its own
// column next to the digest, never inside it.
const SaltLen = 16

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashSecret derives an Argon2id digest of secret and encodes it together
// with its derivation parameters:
//
//	argon2id$v=19$m=65536,t=3,p=1$<base64 key>
func HashSecret(secret, salt []byte) []byte {
	key := argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return []byte(fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(key)))
}

// VerifySecret re-derives the digest with the parameters recorded in stored
// and compares in constant time. A digest that does not decode never
// verifies.
func VerifySecret(secret, salt, stored []byte) bool {
	mem, iters, threads, key, ok := decodeDigest(stored)
	if !ok {
		return false
	}
	got := argon2.IDKey(secret, salt, iters, mem, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1
}

func decodeDigest(stored []byte) (mem, iters uint32, threads uint8, key []byte, ok bool) {
	parts := strings.Split(string(stored), "$")
	if len(parts) != 4 || parts[0] != "argon2id" {
		return 0, 0, 0, nil, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, false
	}
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &mem, &iters, &threads); err != nil {
		return 0, 0, 0, nil, false
	}
	raw, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(raw) == 0 {
		return 0, 0, 0, nil, false
	}
	return mem, iters, threads, raw, true
}
