// Package archetype holds the closed industry enumeration and the static
// fallback tables used when AI analysis is unavailable. Guesses are
// deterministic functions of the subject's domain name so that degraded-mode
// output is reproducible.
package archetype

import (
	"net/url"
	"strings"
)

// Industry is the closed set of industry archetypes with fallback tables.
type Industry string

const (
	Technology Industry = "Technology"
	Ecommerce  Industry = "E-commerce"
	Marketing  Industry = "Marketing"
	Finance    Industry = "Finance"
	Default    Industry = "Default"
)

// Label returns the human-readable industry name. Default renders as
// "Technology" so fallback artifacts never surface the internal bucket name.
func (i Industry) Label() string {
	if i == Default {
		return string(Technology)
	}
	return string(i)
}

// industryKeywords maps domain-name fragments to industries. First match in
// table order wins, so more specific buckets come before Technology.
var industryKeywords = []struct {
	industry Industry
	tokens   []string
}{
	{Ecommerce, []string{"shop", "store", "cart", "commerce", "retail", "buy"}},
	{Finance, []string{"fin", "bank", "pay", "invest", "capital", "fund", "money"}},
	{Marketing, []string{"market", "media", "agency", "brand", "advert", "growth", "seo"}},
	{Technology, []string{"tech", "soft", "app", "cloud", "data", "dev", "code", "ai", "io"}},
}

// Guess derives an industry from a website's domain name. It never fails;
// unmatched domains fall into Default.
func Guess(website string) Industry {
	domain := normalizeDomain(website)
	if domain == "" {
		return Default
	}
	for _, entry := range industryKeywords {
		for _, token := range entry.tokens {
			if strings.Contains(domain, token) {
				return entry.industry
			}
		}
	}
	return Default
}

// normalizeDomain extracts a lowercase hostname (minus "www.") from a URL or
// bare domain string.
func normalizeDomain(website string) string {
	s := strings.TrimSpace(strings.ToLower(website))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(s, "https://")
	}
	return strings.TrimPrefix(u.Host, "www.")
}
