// Package token derives the HAWK id/key pair a storage client signs its
// requests with from the shared secret and payload a token server would
// hand out.
//
// Lifted from the original sync 1.5 token server client [1], adjusted for
// the python token server's float-typed expires field [2]. Kept here
// client-side because fabricating a Token from a known secret is the only
// way to exercise the HAWK-signing path (hawkauth) and the batch/collection
// clients end-to-end without a live token server.
//
// [1] https://raw.githubusercontent.com/st3fan/moz-tokenserver/master/token/token_test.go
// [2] https://github.com/mozilla-services/tokenserver/blob/3b3d98359285dcbcae1706ded664a63fcb457639/tokenserver/views.py#L262
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrSignatureMismatch is returned by ParseToken when the token's
	// HMAC signature does not match the one computed from secret.
	ErrSignatureMismatch = errors.New("token: signature mismatch")

	// ErrPayloadDecoding is returned by ParseToken when the token's
	// signed payload is not valid JSON.
	ErrPayloadDecoding = errors.New("token: could not decode payload")
)

const (
	hkdfInfoSigning = "services.mozilla.com/tokenlib/v1/signing"
	hkdfInfoDerive  = "services.mozilla.com/tokenlib/v1/derive/"
)

// TokenPayload is the signed claim a token server issues: which user, which
// storage node, and when the grant expires.
type TokenPayload struct {
	Salt    string  `json:"salt"`
	Uid     uint64  `json:"uid"`
	Node    string  `json:"node"`
	Expires float64 `json:"expires"`
}

// UidString returns the Uid formatted the way it appears in storage URLs.
func (p TokenPayload) UidString() string {
	return strconv.FormatUint(p.Uid, 10)
}

// Token is a signed TokenPayload plus the HAWK key derived alongside it.
// Token.Token is the HAWK id, Token.DerivedSecret is the HAWK key.
type Token struct {
	Payload       TokenPayload
	Token         string
	DerivedSecret string
}

// Expired reports whether the token's Expires claim is in the past.
func (t *Token) Expired() bool {
	return float64(time.Now().Unix()) > t.Payload.Expires
}

func randomHexString(length int) (string, error) {
	data := make([]byte, length)
	if _, err := rand.Read(data); err != nil {
		return "", errors.Wrap(err, "token: could not read random salt")
	}
	return hex.EncodeToString(data), nil
}

func generateToken(secret []byte, payload TokenPayload) (string, error) {
	secretHkdf := hkdf.New(sha256.New, secret, nil, []byte(hkdfInfoSigning))

	signatureSecret := make([]byte, sha256.Size)
	if _, err := io.ReadFull(secretHkdf, signatureSecret); err != nil {
		return "", errors.Wrap(err, "token: could not derive signing secret")
	}

	encodedPayload, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "token: could not marshal payload")
	}

	mac := hmac.New(sha256.New, signatureSecret)
	mac.Write(encodedPayload)
	payloadSignature := mac.Sum(nil)

	tokenSecret := append(encodedPayload, payloadSignature...)
	return base64.URLEncoding.EncodeToString(tokenSecret), nil
}

func generateDerivedSecret(secret []byte, salt string, encodedTokenSecret string) (string, error) {
	derivedHkdf := hkdf.New(sha256.New, secret, []byte(salt), []byte(hkdfInfoDerive+encodedTokenSecret))

	derivedSecret := make([]byte, sha256.Size)
	if _, err := io.ReadFull(derivedHkdf, derivedSecret); err != nil {
		return "", errors.Wrap(err, "token: could not derive secret")
	}

	return base64.URLEncoding.EncodeToString(derivedSecret), nil
}

// NewToken signs payload under secret, filling in a random Salt if payload
// doesn't already carry one.
func NewToken(secret []byte, payload TokenPayload) (Token, error) {
	if len(payload.Salt) == 0 {
		salt, err := randomHexString(3)
		if err != nil {
			return Token{}, err
		}
		payload.Salt = salt
	}

	t := Token{Payload: payload}

	var err error
	if t.Token, err = generateToken(secret, payload); err != nil {
		return Token{}, err
	}
	if t.DerivedSecret, err = generateDerivedSecret(secret, payload.Salt, t.Token); err != nil {
		return Token{}, err
	}

	return t, nil
}

func splitToken(tok string) ([]byte, []byte, error) {
	decoded, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return nil, nil, errors.Wrap(err, "token: could not base64-decode token")
	}
	if len(decoded) < sha256.Size {
		return nil, nil, errors.New("token: token too short to contain a signature")
	}
	return decoded[:len(decoded)-sha256.Size], decoded[len(decoded)-sha256.Size:], nil
}

func calculateSignatureSecret(secret []byte) ([]byte, error) {
	signatureSecretHkdf := hkdf.New(sha256.New, secret, nil, []byte(hkdfInfoSigning))

	signatureSecret := make([]byte, sha256.Size)
	if _, err := io.ReadFull(signatureSecretHkdf, signatureSecret); err != nil {
		return nil, errors.Wrap(err, "token: could not derive signing secret")
	}
	return signatureSecret, nil
}

// ParseToken verifies tokenSecret's signature under secret and recovers its
// payload and derived HAWK key.
func ParseToken(secret []byte, tokenSecret string) (Token, error) {
	encodedPayload, signature, err := splitToken(tokenSecret)
	if err != nil {
		return Token{}, err
	}

	signatureSecret, err := calculateSignatureSecret(secret)
	if err != nil {
		return Token{}, err
	}

	mac := hmac.New(sha256.New, signatureSecret)
	mac.Write(encodedPayload)
	expectedSignature := mac.Sum(nil)

	if !hmac.Equal(signature, expectedSignature) {
		return Token{}, ErrSignatureMismatch
	}

	t := Token{Token: tokenSecret}
	if err := json.Unmarshal(encodedPayload, &t.Payload); err != nil {
		return Token{}, ErrPayloadDecoding
	}

	if t.DerivedSecret, err = generateDerivedSecret(secret, t.Payload.Salt, t.Token); err != nil {
		return Token{}, err
	}

	return t, nil
}
