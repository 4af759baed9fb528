package features

// Wordlists is the immutable lexical configuration behind the extractor.
// Loaded once at startup and passed into NewExtractor; never mutated after.
type Wordlists struct {
	// SuspiciousKeywords are generic credential/urgency lures counted across
	// the whole URL.
	SuspiciousKeywords []string
	// BrandImpersonation are brand names whose presence anywhere in the URL
	// suggests impersonation.
	BrandImpersonation []string
	// PopularBrands feed the typosquatting comparison against the
	// second-level domain label.
	PopularBrands []string
	// PhishingTerms are narrower, phishing-specific tokens.
	PhishingTerms []string
	// URLShorteners, SuspiciousHosting and SuspiciousTLDs are matched as
	// case-insensitive substrings of the host (TLD match is on the last
	// label only).
	URLShorteners     []string
	SuspiciousHosting []string
	SuspiciousTLDs    []string
	// KnownTLDs is the allow-list behind is_known_tld.
	KnownTLDs []string
	// SensitiveParams are query parameter names that often carry stolen
	// credentials or session material.
	SensitiveParams []string
}

// DefaultWordlists returns the built-in lists the shipped model was trained
// against. Changing an entry shifts lexical feature counts, so treat these as
// part of the model contract.
func DefaultWordlists() Wordlists {
	return Wordlists{
		SuspiciousKeywords: []string{
			"login", "secure", "account", "verify", "update", "signin",
			"confirm", "reset", "password", "security", "authenticate",
			"validation", "service", "alert", "notification", "verification",
			"cgi-bin", "cmd", "execute", "admin", "suspend", "unlock",
			"activate", "reactivate", "revalidate", "renew", "upgrade",
			"limited", "expires", "warning", "urgent", "immediate", "critical",
		},
		BrandImpersonation: []string{
			"paypal", "apple", "amazon", "netflix", "facebook",
			"twitter", "instagram", "microsoft", "wellsfargo", "chase",
			"citibank", "bankofamerica", "hsbc", "barclays", "office365",
			"adobe", "dropbox", "linkedin", "yahoo", "ebay", "alibaba",
			"walmart", "target", "costco", "visa", "mastercard",
			"americanexpress",
		},
		PopularBrands: []string{
			"google", "facebook", "amazon", "paypal", "microsoft", "apple",
			"netflix", "instagram", "linkedin", "twitter", "chase",
			"wellsfargo", "bankofamerica", "citibank", "ebay", "yahoo",
			"adobe", "dropbox", "alibaba", "walmart", "target", "costco",
			"visa", "mastercard",
		},
		PhishingTerms: []string{
			"cgi-bin", "cmd", "execute", "admin", "signin", "verification",
			"suspend", "unlock", "activate", "reactivate", "revalidate",
			"renew",
		},
		URLShorteners: []string{
			"bit.ly", "goo.gl", "tinyurl.com", "ow.ly", "t.co", "is.gd",
			"buff.ly", "adf.ly", "bit.do", "short.link", "tiny.cc",
			"cutt.ly", "bl.ink", "rebrand.ly", "shorturl.at", "rb.gy",
		},
		SuspiciousHosting: []string{
			"trycloudflare.com", "pages.dev", "netlify.app", "vercel.app",
			"github.io", "herokuapp.com", "firebaseapp.com", "surge.sh",
			"netlify.com", "vercel.com", "glitch.me", "000webhostapp.com",
			"weebly.com", "wixsite.com", "yolasite.com", "freehosting.com",
		},
		SuspiciousTLDs: []string{
			"tk", "ml", "ga", "cf", "gq", "xyz", "top", "club", "info",
			"site", "online", "space", "tech", "host", "press", "website",
			"work", "life",
		},
		KnownTLDs: []string{
			"com", "org", "net", "edu", "gov", "mil", "int", "co", "io",
			"ai", "uk", "ca", "de", "fr", "jp", "au", "in", "cn", "br", "ru",
		},
		SensitiveParams: []string{
			"id", "key", "token", "password", "username", "email",
			"account", "session",
		},
	}
}
