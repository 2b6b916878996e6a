package models

// Provider identifies an external OAuth platform a user can connect.
type Provider string

const (
	ProviderGitHub   Provider = "github"
	ProviderTwitter  Provider = "twitter"
	ProviderLinkedIn Provider = "linkedin"
	ProviderDiscord  Provider = "discord"
)

// AllProviders lists every provider the auth layer recognizes.
var AllProviders = []Provider{
	ProviderGitHub,
	ProviderTwitter,
	ProviderLinkedIn,
	ProviderDiscord,
}

// SyncableProviders lists providers whose activity feeds are synced.
var SyncableProviders = []Provider{
	ProviderGitHub,
	ProviderTwitter,
	ProviderLinkedIn,
}

// ParseProvider converts a raw string into a known Provider.
func ParseProvider(s string) (Provider, bool) {
	for _, p := range AllProviders {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// IsSyncable reports whether activities are pulled from p.
func (p Provider) IsSyncable() bool {
	switch p {
	case ProviderGitHub, ProviderTwitter, ProviderLinkedIn:
		return true
	default:
		return false
	}
}

func (p Provider) String() string {
	return string(p)
}
