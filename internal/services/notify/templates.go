package notify

import (
	"bytes"
	htmpl "html/template"
	"strings"
	ttmpl "text/template"
	"time"
)

// ApplicationData feeds the application templates
type ApplicationData struct {
	ApplicationID  string
	JobTitle       string
	CandidateName  string
	CandidateEmail string
	CandidatePhone string
	CoverLetter    string
	CVURL          string
	CertificateURL string
	SubmittedAt    time.Time
}

// LeadData feeds the contact lead template
type LeadData struct {
	LeadID  string
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
}

type pair struct {
	subject *ttmpl.Template
	text    *ttmpl.Template
	html    *htmpl.Template
}

func mustPair(subject, text, html string) pair {
	return pair{
		subject: ttmpl.Must(ttmpl.New("s").Parse(subject)),
		text:    ttmpl.Must(ttmpl.New("t").Parse(text)),
		html:    htmpl.Must(htmpl.New("h").Parse(html)),
	}
}

func (p pair) render(data any) (subject, text, html string, err error) {
	var s, t, h bytes.Buffer
	if err = p.subject.Execute(&s, data); err != nil {
		return
	}
	if err = p.text.Execute(&t, data); err != nil {
		return
	}
	if err = p.html.Execute(&h, data); err != nil {
		return
	}
	return strings.TrimSpace(s.String()), t.String(), h.String(), nil
}

var (
	applicantReceipt = mustPair(
		`Vi har mottatt søknaden din på {{.JobTitle}}`,
		`Hei {{.CandidateName}},

Takk for søknaden på stillingen {{.JobTitle}}. Vi har mottatt den og tar kontakt så snart vi har gått gjennom den.

Referanse: {{.ApplicationID}}
`,
		`<p>Hei {{.CandidateName}},</p>
<p>Takk for søknaden på stillingen <strong>{{.JobTitle}}</strong>. Vi har mottatt den og tar kontakt så snart vi har gått gjennom den.</p>
<p>Referanse: {{.ApplicationID}}</p>
`)

	operatorApplication = mustPair(
		`Ny søknad på {{.JobTitle}} fra {{.CandidateName}}`,
		`Ny søknad {{.ApplicationID}}

Stilling: {{.JobTitle}}
Kandidat: {{.CandidateName}}
E-post: {{.CandidateEmail}}
Telefon: {{.CandidatePhone}}
Sendt: {{.SubmittedAt.Format "02.01.2006 15:04"}}
{{if .CVURL}}CV: {{.CVURL}}
{{end}}{{if .CertificateURL}}Attester: {{.CertificateURL}}
{{end}}
Søknadstekst:
{{.CoverLetter}}
`,
		`<h2>Ny søknad på {{.JobTitle}}</h2>
<ul>
<li>Kandidat: {{.CandidateName}}</li>
<li>E-post: {{.CandidateEmail}}</li>
<li>Telefon: {{.CandidatePhone}}</li>
<li>Sendt: {{.SubmittedAt.Format "02.01.2006 15:04"}}</li>
{{if .CVURL}}<li><a href="{{.CVURL}}">CV</a></li>{{end}}
{{if .CertificateURL}}<li><a href="{{.CertificateURL}}">Attester</a></li>{{end}}
</ul>
<p style="white-space:pre-wrap">{{.CoverLetter}}</p>
<p>Referanse: {{.ApplicationID}}</p>
`)

	operatorLead = mustPair(
		`Ny henvendelse fra {{.Name}}{{if .Company}} ({{.Company}}){{end}}`,
		`Ny henvendelse {{.LeadID}}

Navn: {{.Name}}
E-post: {{.Email}}
Telefon: {{.Phone}}
Bedrift: {{.Company}}

{{.Message}}
`,
		`<h2>Ny henvendelse fra {{.Name}}</h2>
<ul>
<li>E-post: {{.Email}}</li>
<li>Telefon: {{.Phone}}</li>
<li>Bedrift: {{.Company}}</li>
</ul>
<p style="white-space:pre-wrap">{{.Message}}</p>
`)
)

func build(p pair, recipient string, to []string, replyTo string, data any) (Message, error) {
	subject, text, html, err := p.render(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Recipient: recipient, To: to, ReplyTo: replyTo, Subject: subject, Text: text, HTML: html}, nil
}

// ApplicantReceipt renders the confirmation sent to the candidate
func ApplicantReceipt(d ApplicationData) (Message, error) {
	return build(applicantReceipt, Applicant, []string{d.CandidateEmail}, "", d)
}

// OperatorApplication renders the notice sent to operators, replies go to the candidate
func OperatorApplication(operators []string, d ApplicationData) (Message, error) {
	return build(operatorApplication, Operator, operators, d.CandidateEmail, d)
}

// OperatorLead renders the contact lead notice
func OperatorLead(operators []string, d LeadData) (Message, error) {
	return build(operatorLead, Operator, operators, d.Email, d)
}
