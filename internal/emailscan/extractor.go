// Package emailscan extracts subscription signals from receipt and
// billing-notification emails. Every extraction step degrades
// gracefully to the next fallback; a message only produces a candidate
// when both a merchant and a plausible amount were resolved.
package emailscan

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
)

// Plausible subscription price band. Values outside it are rejected
// outright, not merely down-weighted.
var (
	minPlausibleAmount = decimal.RequireFromString("0.99")
	maxPlausibleAmount = decimal.RequireFromString("999.99")
)

// amountPatterns are tried in order over the combined message text.
// Each has exactly one capture group holding the numeric value.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:usd|dollars?)`),
	regexp.MustCompile(`(?i)amount[:\s]*\$?(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)total[:\s]*\$?(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)charged[:\s]*\$?(\d+\.?\d*)`),
	regexp.MustCompile(`(?i)billed[:\s]*\$?(\d+\.?\d*)`),
}

// subjectMerchantPatterns pull a service name out of common billing
// subject lines when the sender header was unusable.
var subjectMerchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)your\s+([a-zA-Z]+)\s+(?:subscription|bill|invoice)`),
	regexp.MustCompile(`(?i)([a-zA-Z]+)\s+(?:premium|pro|plus|subscription)`),
	regexp.MustCompile(`(?i)thank you for choosing\s+([a-zA-Z]+)`),
	regexp.MustCompile(`(?i)welcome to\s+([a-zA-Z]+)`),
}

var (
	senderNamePattern   = regexp.MustCompile(`^([^<]+)`)
	senderPrefixPattern = regexp.MustCompile(`(?i)^(no-?reply|support|billing|noreply)@?`)
	senderDomainPattern = regexp.MustCompile(`@([^.>\s]+)`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// webmailDomains never identify a merchant.
var webmailDomains = map[string]bool{
	"gmail":   true,
	"yahoo":   true,
	"hotmail": true,
	"outlook": true,
	"mail":    true,
}

// Signal is the raw evidence pulled from one email before
// classification.
type Signal struct {
	MerchantName string
	Amount       decimal.Decimal
	Cycle        domain.BillingCycle
}

// Extract pulls a subscription signal from one email record. The
// second return value is false when the message does not look like a
// subscription receipt (no merchant or no plausible amount).
func Extract(email domain.RawEmailRecord) (Signal, bool) {
	merchant := MerchantFromSender(email.Sender)
	if merchant == "" {
		merchant = MerchantFromSubject(email.Subject)
	}
	if merchant == "" {
		return Signal{}, false
	}

	fullText := strings.ToLower(email.Subject + " " + email.Sender + " " + email.BodyText)

	amount, ok := AmountFromText(fullText)
	if !ok {
		return Signal{}, false
	}

	return Signal{
		MerchantName: merchant,
		Amount:       amount,
		Cycle:        CycleFromText(fullText),
	}, true
}

// MerchantFromSender extracts a merchant from the From header: first
// the display name with generic mailer prefixes stripped, then the
// domain (skipping webmail providers).
func MerchantFromSender(sender string) string {
	if sender == "" {
		return ""
	}

	if m := senderNamePattern.FindStringSubmatch(sender); m != nil {
		name := strings.Trim(strings.TrimSpace(m[1]), `"`)
		name = senderPrefixPattern.ReplaceAllString(name, "")
		name = strings.TrimSpace(whitespacePattern.ReplaceAllString(name, " "))
		if len(name) > 2 {
			return name
		}
	}

	if m := senderDomainPattern.FindStringSubmatch(sender); m != nil {
		domainPart := strings.ToLower(m[1])
		if !webmailDomains[domainPart] {
			return titleCase(domainPart)
		}
	}

	return ""
}

// MerchantFromSubject matches subject-line phrasings like
// "Your Netflix subscription" or "Spotify Premium".
func MerchantFromSubject(subject string) string {
	if subject == "" {
		return ""
	}
	for _, pattern := range subjectMerchantPatterns {
		if m := pattern.FindStringSubmatch(subject); m != nil {
			merchant := strings.TrimSpace(m[1])
			if len(merchant) > 2 {
				return merchant
			}
		}
	}
	return ""
}

// AmountFromText tries each currency pattern in order and accepts the
// first match that parses into the plausible subscription price band.
// An out-of-band value falls through to the next pattern.
func AmountFromText(text string) (decimal.Decimal, bool) {
	for _, pattern := range amountPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		if amount.GreaterThanOrEqual(minPlausibleAmount) && amount.LessThanOrEqual(maxPlausibleAmount) {
			return amount, true
		}
	}
	return decimal.Zero, false
}

// CycleFromText scans for billing-cycle keywords, defaulting to
// monthly when nothing matches.
func CycleFromText(text string) domain.BillingCycle {
	switch {
	case containsAny(text, "monthly", "month", "/mo"):
		return domain.CycleMonthly
	case containsAny(text, "annual", "yearly", "year", "/yr"):
		return domain.CycleAnnual
	case containsAny(text, "weekly", "week"):
		return domain.CycleWeekly
	case containsAny(text, "quarterly", "quarter"):
		return domain.CycleQuarterly
	default:
		return domain.CycleMonthly
	}
}

func containsAny(text string, tokens ...string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
