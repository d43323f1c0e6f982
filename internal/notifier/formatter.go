package notifier

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/notifier/discord"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
)

// versionFields lists the payload keys shown on an event embed, in order.
var versionFields = []struct {
	label string
	key   string
}{
	{"Latest", snapshot.KeyLatestFirefoxVersion},
	{"ESR", snapshot.KeyFirefoxESR},
	{"Nightly", snapshot.KeyFirefoxNightly},
	{"Developer Edition", snapshot.KeyFirefoxDevEdition},
	{"Last release", snapshot.KeyLastReleaseDate},
	{"Next release", snapshot.KeyNextReleaseDate},
}

// FormatEventMessage renders a stored event as a webhook message.
func FormatEventMessage(event datastore.Event, mentionRoleIDs []string) (discord.MessagePayload, error) {
	latest := event.Payload.Text(snapshot.KeyLatestFirefoxVersion)
	title := ":fox: Firefox versions changed"
	if latest != "" {
		title = fmt.Sprintf(":fox: Firefox %s", latest)
	}

	builder := discord.NewEmbedBuilder().
		WithTitle(title).
		WithURL(ReleaseNotesURL).
		WithColor(FirefoxEmbedColor).
		WithTimestamp(event.CreatedAt).
		WithFooter(fmt.Sprintf("%s | %s", EmbedFooterText, event.ID), "")
	for _, f := range versionFields {
		if _, ok := event.Payload.Lookup(f.key); ok {
			builder.AddField(f.label, event.Payload.Text(f.key), true)
		}
	}

	embed, err := builder.Build()
	if err != nil {
		return discord.MessagePayload{}, err
	}

	return discord.NewPayloadBuilder().
		WithUsername(DiscordUsername).
		WithRoleMentions(mentionRoleIDs).
		AddEmbed(embed).
		Build(), nil
}

// FormatFailureMessage renders a failed check as a webhook message.
func FormatFailureMessage(agentName string, checkErr error, at time.Time) (discord.MessagePayload, error) {
	embed, err := discord.NewEmbedBuilder().
		WithTitle(":x: Check failed").
		WithDescription(fmt.Sprintf("```\n%s\n```", truncateString(checkErr.Error(), MaxErrorTextLength))).
		WithColor(ErrorEmbedColor).
		WithTimestamp(at).
		AddField("Agent", agentName, true).
		Build()
	if err != nil {
		return discord.MessagePayload{}, err
	}

	return discord.NewPayloadBuilder().
		WithUsername(DiscordUsername).
		AddEmbed(embed).
		Build(), nil
}

// truncateString cuts s to at most maxLength characters, never inside a rune.
func truncateString(s string, maxLength int) string {
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength-3]) + "..."
}
