package classify

import (
	"strings"

	"github.com/subzero/subzero/internal/domain"
)

// knownServices maps merchant-name substrings to canonical service
// names. Ordered so lookups are deterministic when a name could match
// more than one entry.
var knownServices = []struct {
	key  string
	name string
}{
	{"netflix", "Netflix"},
	{"spotify", "Spotify"},
	{"adobe", "Adobe Creative Cloud"},
	{"microsoft", "Microsoft 365"},
	{"apple", "Apple Services"},
	{"google", "Google Workspace"},
	{"amazon", "Amazon Prime"},
}

// ServiceName returns the canonical display name for a known merchant,
// or "" when the merchant is not recognized.
func ServiceName(merchantName string) string {
	name := strings.ToLower(merchantName)
	for _, svc := range knownServices {
		if strings.Contains(name, svc.key) {
			return svc.name
		}
	}
	return ""
}

var cancellationTable = []struct {
	key  string
	info domain.CancellationInfo
}{
	{"netflix", domain.CancellationInfo{
		Method:       "web",
		URL:          "https://www.netflix.com/account",
		Instructions: "Sign in to your account and go to Account settings",
	}},
	{"spotify", domain.CancellationInfo{
		Method:       "web",
		URL:          "https://www.spotify.com/account/subscription/",
		Instructions: "Log in and manage your subscription",
	}},
	{"adobe", domain.CancellationInfo{
		Method:       "web",
		URL:          "https://account.adobe.com/plans",
		Instructions: "Sign in to Adobe account and manage plans",
	}},
}

// Cancellation returns cancellation instructions for a known service,
// or nil when none are on file.
func Cancellation(merchantName string) *domain.CancellationInfo {
	name := strings.ToLower(merchantName)
	for _, entry := range cancellationTable {
		if strings.Contains(name, entry.key) {
			info := entry.info
			return &info
		}
	}
	return nil
}
