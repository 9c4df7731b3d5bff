// Package hawkauth builds the syncclient.Authorizer that signs every
// outgoing request with HAWK, the auth scheme Sync 1.5 storage servers
// expect.
//
// It derives a hawk.Credentials/hawk.Auth pair from a token.Token and
// signs each request in turn, rather than producing a single hand-craft-
// able header for one-off use.
package hawkauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.mozilla.org/hawk"

	"github.com/mozilla-services/go-syncclient/syncclient"
	"github.com/mozilla-services/go-syncclient/token"
)

// nonceSize is the number of random bytes used to build each request's
// HAWK nonce.
const nonceSize = 8

func nonce() (string, error) {
	b := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", errors.Wrap(err, "hawkauth: could not read random nonce")
	}
	return base64.StdEncoding.EncodeToString(b)[:nonceSize], nil
}

// New returns a syncclient.Authorizer that signs every request with HAWK
// using tok's id/key pair. If the request carries a body, the Authorizer
// also computes and sets a payload hash, so a tampered body invalidates
// the signature.
func New(tok token.Token) syncclient.Authorizer {
	creds := &hawk.Credentials{
		ID:   tok.Token,
		Key:  []byte(tok.DerivedSecret),
		Hash: sha256.New,
	}

	return func(req *http.Request) error {
		auth := hawk.NewRequestAuth(req, creds, 0)

		n, err := nonce()
		if err != nil {
			return err
		}
		auth.Nonce = n

		if req.Body != nil && req.Body != http.NoBody {
			if err := setPayloadHash(auth, req, req.Header.Get("Content-Type")); err != nil {
				return err
			}
		}

		req.Header.Set("Authorization", auth.RequestHeader())
		return nil
	}
}

// setPayloadHash reads a separate copy of req's body from req.GetBody
// (which syncclient's request builders always set), hashes it into auth,
// and leaves req.Body itself unread so the real request transmits the
// full body.
func setPayloadHash(auth *hawk.Auth, req *http.Request, contentType string) error {
	body, err := req.GetBody()
	if err != nil {
		return errors.Wrap(err, "hawkauth: could not re-read request body for payload hash")
	}
	defer body.Close()

	hash := auth.PayloadHash(contentType)
	if _, err := io.Copy(hash, body); err != nil {
		return errors.Wrap(err, "hawkauth: could not hash request body")
	}
	auth.SetHash(hash)
	return nil
}

// NewFromSecret derives a fresh Token for uid against node using secret,
// expiring at expiresUnixSeconds (seconds since the Unix epoch), and
// returns an Authorizer over it. This is the
// convenience path for hosts that hold a shared secret directly rather
// than talking to a token server.
func NewFromSecret(secret []byte, uid uint64, node string, expiresUnixSeconds float64) (syncclient.Authorizer, error) {
	tok, err := token.NewToken(secret, token.TokenPayload{
		Uid:     uid,
		Node:    node,
		Expires: expiresUnixSeconds,
	})
	if err != nil {
		return nil, err
	}
	return New(tok), nil
}
