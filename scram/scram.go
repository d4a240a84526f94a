// Package scram implements the client side of the SCRAM-SHA-1
// handshake MongoDB uses for the `SCRAM-SHA-1` authentication
// mechanism, including MongoDB's legacy "mongo" password hash used as
// the PBKDF2 input.
package scram

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/facebookgo/stackerr"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// ErrServerSignatureMismatch is returned when the server's final
// signature does not match what the client computed, meaning either
// the server doesn't know the password or a man-in-the-middle altered
// the exchange.
var ErrServerSignatureMismatch = errors.New("scram: server signature mismatch")

// ErrNonceMismatch is returned when the server's nonce does not start
// with the client's nonce, as RFC 5802 requires.
var ErrNonceMismatch = errors.New("scram: server nonce does not extend client nonce")

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789+/"

// NewClientNonce returns a 32-character nonce drawn from the printable
// set [a-zA-Z0-9+/]. Random bytes come from a UUID's 16 random bytes,
// stretched across two draws, rather than a hand-rolled CSPRNG loop.
func NewClientNonce() (string, error) {
	var raw [32]byte
	a, err := uuid.NewRandom()
	if err != nil {
		return "", stackerr.Wrap(err)
	}
	b, err := uuid.NewRandom()
	if err != nil {
		return "", stackerr.Wrap(err)
	}
	copy(raw[:16], a[:])
	copy(raw[16:], b[:])

	out := make([]byte, 32)
	for i, v := range raw {
		out[i] = nonceAlphabet[int(v)%len(nonceAlphabet)]
	}
	return string(out), nil
}

// MongoKey computes MongoDB's legacy password hash,
// MD5_hex(user + ":mongo:" + password), used as the PBKDF2 password
// input (mandatory for compatibility with pre-4.0 servers).
func MongoKey(user, password string) string {
	h := md5.Sum([]byte(user + ":mongo:" + password))
	return hex.EncodeToString(h[:])
}

// Client drives one SCRAM-SHA-1 conversation.
type Client struct {
	User       string
	Password   string
	ClientNonce string

	saltedPass []byte
	authMessage string
	serverNonce string
}

// NewClient builds a Client for the given credentials, generating a
// fresh client nonce.
func NewClient(user, password string) (*Client, error) {
	nonce, err := NewClientNonce()
	if err != nil {
		return nil, err
	}
	return &Client{User: user, Password: password, ClientNonce: nonce}, nil
}

// FirstPayload returns the `saslStart` payload:
// "n,,n=<user>,r=<nonce>".
func (c *Client) FirstPayload() []byte {
	return []byte(fmt.Sprintf("n,,n=%s,r=%s", escapeUser(c.User), c.ClientNonce))
}

// firstBare is the portion of FirstPayload after the GS2 header,
// reused when constructing the auth message.
func (c *Client) firstBare() string {
	return fmt.Sprintf("n=%s,r=%s", escapeUser(c.User), c.ClientNonce)
}

func escapeUser(u string) string {
	u = strings.ReplaceAll(u, "=", "=3D")
	u = strings.ReplaceAll(u, ",", "=2C")
	return u
}

// ParseServerFirst parses the saslStart reply payload:
// "r=<serverNonce>,s=<saltB64>,i=<iterations>", asserting the server
// nonce extends the client nonce.
func (c *Client) ParseServerFirst(payload []byte) (salt []byte, iterations int, err error) {
	fields := parseFields(string(payload))
	serverNonce, ok := fields["r"]
	if !ok || !strings.HasPrefix(serverNonce, c.ClientNonce) {
		return nil, 0, stackerr.Wrap(ErrNonceMismatch)
	}
	saltB64, ok := fields["s"]
	if !ok {
		return nil, 0, stackerr.Newf("scram: missing salt in server-first message")
	}
	salt, err = base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, 0, stackerr.Wrap(err)
	}
	iterStr, ok := fields["i"]
	if !ok {
		return nil, 0, stackerr.Newf("scram: missing iteration count in server-first message")
	}
	if _, err := fmt.Sscanf(iterStr, "%d", &iterations); err != nil {
		return nil, 0, stackerr.Wrap(err)
	}

	c.serverNonce = serverNonce
	c.authMessage = c.firstBare() + "," + string(payload) + ",c=biws,r=" + serverNonce
	c.saltedPass = pbkdf2.Key([]byte(MongoKey(c.User, c.Password)), salt, iterations, 20, sha1.New)

	return salt, iterations, nil
}

func hmacSHA1(key, msg []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// FinalPayload returns the `saslContinue` payload:
// "c=biws,r=<serverNonce>,p=<proof>".
func (c *Client) FinalPayload() []byte {
	clientKey := hmacSHA1(c.saltedPass, []byte("Client Key"))
	storedKey := sha1.Sum(clientKey)
	clientSig := hmacSHA1(storedKey[:], []byte(c.authMessage))
	proof := xorBytes(clientKey, clientSig)

	payload := "c=biws,r=" + c.serverNonce + ",p=" + base64.StdEncoding.EncodeToString(proof)
	return []byte(payload)
}

// VerifyServerFinal checks the `v=<serverSig>` field of the
// saslContinue reply against the expected ServerSignature.
func (c *Client) VerifyServerFinal(payload []byte) error {
	fields := parseFields(string(payload))
	got, ok := fields["v"]
	if !ok {
		return stackerr.Newf("scram: missing server signature")
	}

	serverKey := hmacSHA1(c.saltedPass, []byte("Server Key"))
	expected := base64.StdEncoding.EncodeToString(hmacSHA1(serverKey, []byte(c.authMessage)))

	if got != expected {
		return stackerr.Wrap(ErrServerSignatureMismatch)
	}
	return nil
}

func parseFields(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		if i := strings.IndexByte(part, '='); i >= 0 {
			out[part[:i]] = part[i+1:]
		}
	}
	return out
}
