package notifier

// Discord formatting constants
const (
	DiscordUsername   = "Firefox Versions"
	ErrorEmbedColor   = 0xD9534F
	FirefoxEmbedColor = 0xFF7139
	ReleaseNotesURL   = "https://www.mozilla.org/firefox/releases/"
	EmbedFooterText   = "product-details.mozilla.org"
)

// MaxErrorTextLength bounds the error text placed in a failure embed.
const MaxErrorTextLength = 800
