package discord

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InteractionType identifies an inbound interaction.
type InteractionType int

const (
	InteractionTypePing                           InteractionType = 1
	InteractionTypeApplicationCommand             InteractionType = 2
	InteractionTypeMessageComponent               InteractionType = 3
	InteractionTypeApplicationCommandAutocomplete InteractionType = 4
	InteractionTypeModalSubmit                    InteractionType = 5
)

// Interaction is the payload delivered to the interactions endpoint.
type Interaction struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"application_id"`
	Type          InteractionType  `json:"type"`
	Data          *InteractionData `json:"data,omitempty"`
	GuildID       string           `json:"guild_id,omitempty"`
	ChannelID     string           `json:"channel_id,omitempty"`
	Member        *Member          `json:"member,omitempty"`
	User          *User            `json:"user,omitempty"`
	Token         string           `json:"token"`
	Version       int              `json:"version"`
	Locale        string           `json:"locale,omitempty"`
	GuildLocale   string           `json:"guild_locale,omitempty"`
}

// Invoker returns the user who triggered the interaction. Guild interactions
// carry the user inside Member; direct messages carry it at the top level.
func (i *Interaction) Invoker() *User {
	if i == nil {
		return nil
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// Member is a guild member.
type Member struct {
	User        *User  `json:"user,omitempty"`
	Nick        string `json:"nick,omitempty"`
	Permissions string `json:"permissions,omitempty"`
}

// User is a platform account.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Bot        bool   `json:"bot,omitempty"`
}

// DisplayName returns the global name when set, otherwise the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.GlobalName) != "" {
		return u.GlobalName
	}
	return u.Username
}

// InteractionData is the command payload of an application command
// interaction.
type InteractionData struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Type    ApplicationCommandType  `json:"type"`
	GuildID string                  `json:"guild_id,omitempty"`
	Options []InteractionDataOption `json:"options,omitempty"`
}

// Route splits the invoked path into its group and subcommand names and
// returns the leaf's options. Missing levels are returned as empty strings.
func (d *InteractionData) Route() (group, subcommand string, options []InteractionDataOption) {
	if d == nil {
		return "", "", nil
	}
	options = d.Options
	if len(options) > 0 && options[0].Type == OptionTypeSubcommandGroup {
		group = options[0].Name
		options = options[0].Options
	}
	if len(options) > 0 && options[0].Type == OptionTypeSubcommand {
		subcommand = options[0].Name
		options = options[0].Options
	}
	return group, subcommand, options
}

// InteractionDataOption is one supplied option value, or a nested
// subcommand / group carrying its own options.
type InteractionDataOption struct {
	Name    string                  `json:"name"`
	Type    OptionType              `json:"type"`
	Value   json.RawMessage         `json:"value,omitempty"`
	Options []InteractionDataOption `json:"options,omitempty"`
	Focused bool                    `json:"focused,omitempty"`
}

// StringValue decodes a string option value.
func (o InteractionDataOption) StringValue() (string, error) {
	var value string
	if err := json.Unmarshal(o.Value, &value); err != nil {
		return "", fmt.Errorf("option %q: decode string: %w", o.Name, err)
	}
	return value, nil
}

// IntValue decodes an integer option value.
func (o InteractionDataOption) IntValue() (int64, error) {
	var value int64
	if err := json.Unmarshal(o.Value, &value); err != nil {
		return 0, fmt.Errorf("option %q: decode integer: %w", o.Name, err)
	}
	return value, nil
}

// FloatValue decodes a number option value.
func (o InteractionDataOption) FloatValue() (float64, error) {
	var value float64
	if err := json.Unmarshal(o.Value, &value); err != nil {
		return 0, fmt.Errorf("option %q: decode number: %w", o.Name, err)
	}
	return value, nil
}

// BoolValue decodes a boolean option value.
func (o InteractionDataOption) BoolValue() (bool, error) {
	var value bool
	if err := json.Unmarshal(o.Value, &value); err != nil {
		return false, fmt.Errorf("option %q: decode boolean: %w", o.Name, err)
	}
	return value, nil
}

// FindOption returns the option named name from a flat option list.
func FindOption(options []InteractionDataOption, name string) (InteractionDataOption, bool) {
	for _, option := range options {
		if option.Name == name {
			return option, true
		}
	}
	return InteractionDataOption{}, false
}
