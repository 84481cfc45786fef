// Package session verifies the optional candidate bearer credential
//
// The credential is "<candidateId>.<expiryUnix>.<hmac>" signed with SESSION_SECRET.
// Requests without an Authorization header are anonymous.
package session

import (
	"net/http"
	"strings"
	"time"

	"bemanning/internal/platform/config"
	perr "bemanning/internal/platform/errors"
	"bemanning/internal/platform/logger"
	"bemanning/internal/platform/token"
)

// MsgInvalid is the caller facing message for a credential that does not verify
const MsgInvalid = "Økten din er utløpt. Logg inn på nytt."

// Verifier implements middleware.SessionPort
type Verifier struct {
	signer token.Signer
	now    func() time.Time
}

// New returns a Verifier, an empty secret rejects every presented credential
func New(secret string) *Verifier {
	return &Verifier{signer: token.New(secret), now: time.Now}
}

// FromConfig reads SESSION_SECRET
func FromConfig(c config.Conf) *Verifier {
	return New(c.Prefix("SESSION_").MayString("SECRET", ""))
}

// Issue mints a credential for candidateID valid for ttl
func (v *Verifier) Issue(candidateID string, ttl time.Duration) (string, error) {
	return v.signer.Sign(candidateID, token.Expiry(v.now().Add(ttl)))
}

// Candidate returns the verified candidate id
func (v *Verifier) Candidate(r *http.Request) (string, bool, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false, nil
	}
	raw, found := strings.CutPrefix(h, "Bearer ")
	if !found {
		return "", false, perr.New(perr.ErrorCodeUnauthorized, MsgInvalid)
	}
	fields, err := v.signer.Verify(raw, 2)
	if err == nil {
		_, err = token.CheckExpiry(fields[1], v.now())
	}
	if err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("session credential rejected")
		return "", false, perr.Wrap(err, perr.ErrorCodeUnauthorized, MsgInvalid)
	}
	return fields[0], true, nil
}
