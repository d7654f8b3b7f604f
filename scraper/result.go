package scraper

// PageContent is the decoded HTML of one successful fetch. It lives only
// for the duration of a single fetch → extract call.
type PageContent struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after following redirects.
	FinalURL string

	StatusCode int

	// HTML is the body decoded as UTF-8.
	HTML string

	// Profile names the header profile that was accepted.
	Profile string
}
