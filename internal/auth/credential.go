package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformedCredential reports an Authorization header that cannot be decoded into a credential.
var ErrMalformedCredential = errors.New("malformed credential")

// Credential is a decoded subject/secret pair.
type Credential struct {
	Subject string
	Secret  string
}

// ParseCredential decodes a header of the form "<scheme> base64(subject:secret)".
// Scheme and payload may be separated by any run of whitespace.
// The scheme comparison is case-insensitive. The secret may itself contain colons.
func ParseCredential(header, scheme string) (Credential, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return Credential{}, fmt.Errorf("%w: expected scheme and payload", ErrMalformedCredential)
	}
	gotScheme, payload := fields[0], fields[1]
	if !strings.EqualFold(gotScheme, scheme) {
		return Credential{}, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedCredential, gotScheme)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: invalid base64: %w", ErrMalformedCredential, err)
	}
	if !utf8.Valid(decoded) {
		return Credential{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformedCredential)
	}

	subject, secret, found := strings.Cut(string(decoded), ":")
	if !found {
		return Credential{}, fmt.Errorf("%w: missing separator", ErrMalformedCredential)
	}
	return Credential{Subject: subject, Secret: secret}, nil
}
