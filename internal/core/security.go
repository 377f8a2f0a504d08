// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const saltLength = 16

var ErrInvalidHash = errors.New("invalid password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// currentArgon is the cost every new password hash is written with. Older
// hashes verify with their own encoded parameters and are upgraded on login.
var currentArgon = argonParams{memory: 64 * 1024, time: 1, threads: 4, keyLen: 32}

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return currentArgon.encode(salt, currentArgon.derive(password, salt)), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	params, salt, key, err := parseArgonHash(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, params.derive(password, salt)) == 1, nil
}

var placeholderHash = sync.OnceValue(func() string {
	hash, err := HashPassword("placeholder-for-unknown-accounts")
	if err != nil {
		panic(fmt.Sprintf("security: generate placeholder hash: %v", err))
	}
	return hash
})

// VerifyPasswordTimingSafe always runs a full derivation, against a
// placeholder when the account has no hash. A non-empty second result is an
// upgraded hash the caller should store.
func VerifyPasswordTimingSafe(password string, encodedHash *string) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		_, _ = VerifyPassword(password, placeholderHash()) //nolint:errcheck // constant-time padding
		return false, "", nil
	}

	valid, err := VerifyPassword(password, *encodedHash)
	if err != nil || !valid {
		return false, "", err
	}

	params, _, _, _ := parseArgonHash(*encodedHash) //nolint:errcheck // parsed above
	if params == currentArgon {
		return true, "", nil
	}

	upgraded, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // the password was correct; the upgrade can wait
		return true, "", nil
	}
	return true, upgraded, nil
}

func parseArgonHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrInvalidHash, parts[2])
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %w", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}

// GenerateHexToken returns n random bytes, hex encoded.
func GenerateHexToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

const (
	tempPasswordLength    = 16
	tempPasswordMinLength = 12
	upperChars            = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars            = "abcdefghijkmnopqrstuvwxyz"
	digitChars            = "23456789"
	symbolChars           = "!@#$%^&*()-_=+"
)

// GenerateTemporaryPassword builds a password with at least one upper,
// lower, digit and symbol character. Look-alike characters are excluded.
func GenerateTemporaryPassword() (string, error) {
	for {
		password, err := buildTemporaryPassword()
		if err != nil {
			return "", err
		}
		if len(password) >= tempPasswordMinLength {
			return password, nil
		}
	}
}

func buildTemporaryPassword() (string, error) {
	sets := []string{upperChars, lowerChars, digitChars, symbolChars}
	all := strings.Join(sets, "")

	out := make([]byte, 0, tempPasswordLength)
	for _, set := range sets {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for len(out) < tempPasswordLength {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("generate random index: %w", err)
	}
	return int(v.Int64()), nil
}
