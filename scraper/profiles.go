package scraper

import (
	"fmt"
	"math/rand/v2"
)

// HeaderProfile is one bundle of browser-like request headers.
type HeaderProfile map[string]string

// HeaderProfileSource yields a HeaderProfile at attempt time. The Fetcher
// never needs to know whether a source is static or generated.
type HeaderProfileSource interface {
	// Name identifies the profile in logs.
	Name() string

	// Headers returns a fresh profile. Callers must not mutate it.
	Headers() HeaderProfile
}

// StaticProfile always yields the same headers.
type StaticProfile struct {
	Label   string
	Profile HeaderProfile
}

func (p StaticProfile) Name() string { return p.Label }

// Headers returns a copy so the shared profile can never be mutated.
func (p StaticProfile) Headers() HeaderProfile {
	out := make(HeaderProfile, len(p.Profile))
	for k, v := range p.Profile {
		out[k] = v
	}
	return out
}

// GeneratedProfile computes its headers on every call, e.g. to randomize
// the advertised browser version.
type GeneratedProfile struct {
	Label    string
	Generate func() HeaderProfile
}

func (p GeneratedProfile) Name() string { return p.Label }

func (p GeneratedProfile) Headers() HeaderProfile { return p.Generate() }

const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// DefaultProfiles returns the ordered profile set tried for every fetch:
// a current Windows Chrome, a Firefox with a randomized version, then a
// Linux Chrome that asks for compressed, uncached content.
func DefaultProfiles() []HeaderProfileSource {
	return []HeaderProfileSource{
		StaticProfile{
			Label: "chrome-windows",
			Profile: HeaderProfile{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				"Accept":          acceptHTML,
				"Accept-Language": "en-US,en;q=0.9",
			},
		},
		GeneratedProfile{
			Label:    "firefox-random",
			Generate: randomFirefoxProfile,
		},
		StaticProfile{
			Label: "chrome-linux",
			Profile: HeaderProfile{
				"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Accept":          acceptHTML,
				"Accept-Language": "en-US,en;q=0.9",
				"Accept-Encoding": "gzip, deflate, br",
				"Cache-Control":   "no-cache",
				"Pragma":          "no-cache",
			},
		},
	}
}

// randomFirefoxProfile advertises a Firefox release between 60 and 79.
func randomFirefoxProfile() HeaderProfile {
	rv := 60 + rand.IntN(20)
	version := 60 + rand.IntN(20)
	return HeaderProfile{
		"User-Agent":      fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:%d.0) Gecko/20100101 Firefox/%d.0", rv, version),
		"Accept":          acceptHTML,
		"Accept-Language": "en-US,en;q=0.9",
	}
}
