package discord

import (
	"fmt"
	"strings"
	"time"
)

// EmbedBuilder helps in constructing Embed objects.
type EmbedBuilder struct {
	embed Embed
}

// NewEmbedBuilder creates a new embed builder
func NewEmbedBuilder() *EmbedBuilder {
	return &EmbedBuilder{}
}

// WithTitle sets the embed title
func (b *EmbedBuilder) WithTitle(title string) *EmbedBuilder {
	b.embed.Title = title
	return b
}

// WithDescription sets the embed description
func (b *EmbedBuilder) WithDescription(description string) *EmbedBuilder {
	b.embed.Description = description
	return b
}

// WithURL sets the link behind the embed title
func (b *EmbedBuilder) WithURL(url string) *EmbedBuilder {
	b.embed.URL = url
	return b
}

// WithTimestamp sets the embed timestamp
func (b *EmbedBuilder) WithTimestamp(timestamp time.Time) *EmbedBuilder {
	b.embed.Timestamp = timestamp.UTC().Format(time.RFC3339)
	return b
}

// WithColor sets the embed color
func (b *EmbedBuilder) WithColor(color int) *EmbedBuilder {
	b.embed.Color = color
	return b
}

// WithFooter sets the embed footer
func (b *EmbedBuilder) WithFooter(text, iconURL string) *EmbedBuilder {
	b.embed.Footer = &EmbedFooter{Text: text, IconURL: iconURL}
	return b
}

// WithAuthor sets the embed author
func (b *EmbedBuilder) WithAuthor(name, url, iconURL string) *EmbedBuilder {
	b.embed.Author = &EmbedAuthor{Name: name, URL: url, IconURL: iconURL}
	return b
}

// AddField adds a field to the embed. Empty values are rendered as a dash
// because Discord rejects blank field values.
func (b *EmbedBuilder) AddField(name, value string, inline bool) *EmbedBuilder {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	b.embed.Fields = append(b.embed.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return b
}

// Build validates and returns the embed.
func (b *EmbedBuilder) Build() (Embed, error) {
	if err := ValidateEmbed(b.embed); err != nil {
		return Embed{}, err
	}
	return b.embed, nil
}

// PayloadBuilder helps in constructing MessagePayload objects.
type PayloadBuilder struct {
	payload MessagePayload
}

// NewPayloadBuilder creates a new payload builder
func NewPayloadBuilder() *PayloadBuilder {
	return &PayloadBuilder{}
}

// WithContent sets the plain text part of the message
func (b *PayloadBuilder) WithContent(content string) *PayloadBuilder {
	b.payload.Content = content
	return b
}

// WithUsername overrides the webhook username
func (b *PayloadBuilder) WithUsername(username string) *PayloadBuilder {
	b.payload.Username = username
	return b
}

// WithAvatarURL overrides the webhook avatar
func (b *PayloadBuilder) WithAvatarURL(avatarURL string) *PayloadBuilder {
	b.payload.AvatarURL = avatarURL
	return b
}

// WithRoleMentions prefixes the content with role pings and allows only
// those roles to be notified.
func (b *PayloadBuilder) WithRoleMentions(roleIDs []string) *PayloadBuilder {
	if len(roleIDs) == 0 {
		return b
	}

	mentions := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", id))
	}
	prefix := strings.Join(mentions, " ")
	if b.payload.Content != "" {
		prefix += "\n" + b.payload.Content
	}
	b.payload.Content = prefix
	b.payload.AllowedMentions = &AllowedMentions{
		Parse: []string{},
		Roles: append([]string(nil), roleIDs...),
	}
	return b
}

// AddEmbed appends an embed to the message
func (b *PayloadBuilder) AddEmbed(embed Embed) *PayloadBuilder {
	b.payload.Embeds = append(b.payload.Embeds, embed)
	return b
}

// Build returns the constructed payload
func (b *PayloadBuilder) Build() MessagePayload {
	return b.payload
}
