// Package domain holds the application submission types and ports
package domain

import (
	"path"
	"strings"
	"time"
)

// Caller facing messages
const (
	MsgSubmitted      = "Søknaden din er sendt!"
	MsgNotConfigured  = "Tjenesten er midlertidig utilgjengelig. Prøv igjen senere."
	MsgThrottled      = "For mange forespørsler. Prøv igjen senere."
	MsgConsent        = "Du må samtykke til behandling av personopplysninger."
	MsgNotLoggedIn    = "Du må være logget inn for å søke."
	MsgJobUnavailable = "Stillingen finnes ikke eller er ikke lenger aktiv."
	MsgDuplicate      = "Du har allerede søkt på denne stillingen."
	MsgBadReference   = "Ugyldig kandidat eller stilling."
	MsgSaveFailed     = "Kunne ikke lagre søknaden. Prøv igjen senere."
	MsgLookupFailed   = "Kunne ikke behandle søknaden. Prøv igjen senere."
)

// Cover letter bounds in NFC characters
const (
	CoverLetterMin = 50
	CoverLetterMax = 2000
)

// Application defaults
const (
	StatusPending = "pending"
	SourceWebsite = "website"
	JobActive     = "active"
)

// SubmitInput is the application request body
type SubmitInput struct {
	JobID           string `json:"jobId" validate:"required,uuid"`
	CandidateID     string `json:"candidateId" validate:"required,uuid"`
	CoverLetter     string `json:"coverLetter" validate:"required"`
	CertificatesKey string `json:"certificatesKey,omitempty" validate:"omitempty,max=512"`
	Consent         bool   `json:"consent"`
}

// Meta is the request metadata recorded with an application
type Meta struct {
	ClientIP  string
	UserAgent string
	RequestID string
	// SessionCandidate is set when the caller presented a verified session
	SessionCandidate string
}

// Candidate is the subset of the candidate record copied onto an application
type Candidate struct {
	ID             string
	FullName       string
	Email          string
	Phone          string
	CVKey          string
	CertificateKey string
	EmailVerified  bool
	PhoneVerified  bool
}

// KeyPrefix is where the candidate's own uploads live in the document bucket
func (c Candidate) KeyPrefix() string { return "candidates/" + c.ID + "/" }

// OwnsKey reports whether key is the stored certificate or a clean key
// under KeyPrefix
func (c Candidate) OwnsKey(key string) bool {
	if key == "" || c.ID == "" {
		return false
	}
	if key == c.CertificateKey {
		return true
	}
	return path.Clean(key) == key && strings.HasPrefix(key, c.KeyPrefix()) && len(key) > len(c.KeyPrefix())
}

// Job is an active posting
type Job struct {
	ID     string
	Title  string
	Status string
}

// NewApplication is the row the gateway inserts
type NewApplication struct {
	JobID          string
	CandidateID    string
	FullName       string
	Email          string
	Phone          string
	CoverLetter    string
	CVKey          string
	CertificateKey string
	Status         string
	Source         string
	ClientIP       string
	UserAgent      string
	EmailVerified  bool
	PhoneVerified  bool
	ConsentAt      time.Time
}

// Application is what the gateway returns after insert
type Application struct {
	ID          string
	SubmittedAt time.Time
}

// SubmitOutput is the success payload
type SubmitOutput struct {
	ApplicationID string `json:"applicationId"`
	Message       string `json:"message"`
}
