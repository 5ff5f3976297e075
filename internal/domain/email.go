package domain

import "time"

// RawEmailRecord is one email as supplied by the email aggregation
// collaborator, already decoded to plain text. HTML-to-text conversion
// is the collaborator's responsibility.
type RawEmailRecord struct {
	MessageID  string
	Sender     string // RFC 5322 From header, e.g. `"Netflix" <info@mailer.netflix.com>`
	Subject    string
	BodyText   string
	ReceivedAt time.Time
}

// EmailCredentials holds the OAuth material the email collaborator
// needs to fetch messages. The engine never refreshes or exchanges
// tokens; it only passes these through.
type EmailCredentials struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
