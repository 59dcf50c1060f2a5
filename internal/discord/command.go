package discord

// ApplicationCommandType identifies the kind of application command.
type ApplicationCommandType int

const (
	// CommandTypeChatInput is a slash command; the platform default.
	CommandTypeChatInput ApplicationCommandType = 1
	// CommandTypeUser is a user context-menu command.
	CommandTypeUser ApplicationCommandType = 2
	// CommandTypeMessage is a message context-menu command.
	CommandTypeMessage ApplicationCommandType = 3
	// CommandTypePrimaryEntryPoint launches an activity.
	CommandTypePrimaryEntryPoint ApplicationCommandType = 4
)

// OptionType identifies the value type of a command option.
type OptionType int

const (
	OptionTypeSubcommand      OptionType = 1
	OptionTypeSubcommandGroup OptionType = 2
	OptionTypeString          OptionType = 3
	OptionTypeInteger         OptionType = 4
	OptionTypeBoolean         OptionType = 5
	OptionTypeUser            OptionType = 6
	OptionTypeChannel         OptionType = 7
	OptionTypeRole            OptionType = 8
	OptionTypeMentionable     OptionType = 9
	OptionTypeNumber          OptionType = 10
	OptionTypeAttachment      OptionType = 11
)

// IsNested reports whether options of this type carry nested options.
func (t OptionType) IsNested() bool {
	return t == OptionTypeSubcommand || t == OptionTypeSubcommandGroup
}

// ApplicationCommand is a published (or publishable) command definition.
//
// Pointer fields distinguish "absent" from the zero value so definitions read
// back from the platform round-trip faithfully.
type ApplicationCommand struct {
	ID                       string                     `json:"id,omitempty"`
	ApplicationID            string                     `json:"application_id,omitempty"`
	GuildID                  string                     `json:"guild_id,omitempty"`
	Version                  string                     `json:"version,omitempty"`
	Type                     ApplicationCommandType     `json:"type,omitempty"`
	Name                     string                     `json:"name"`
	NameLocalizations        map[string]string          `json:"name_localizations,omitempty"`
	Description              string                     `json:"description"`
	DescriptionLocalizations map[string]string          `json:"description_localizations,omitempty"`
	Options                  []ApplicationCommandOption `json:"options,omitempty"`
	DefaultMemberPermissions *string                    `json:"default_member_permissions,omitempty"`
	NSFW                     *bool                      `json:"nsfw,omitempty"`
	IntegrationTypes         []int                      `json:"integration_types,omitempty"`
	Contexts                 []int                      `json:"contexts,omitempty"`
	Handler                  *int                       `json:"handler,omitempty"`
}

// ApplicationCommandOption is one entry of a command's ordered option list.
// Subcommands and subcommand groups are options with nested Options.
type ApplicationCommandOption struct {
	Type                     OptionType                       `json:"type"`
	Name                     string                           `json:"name"`
	NameLocalizations        map[string]string                `json:"name_localizations,omitempty"`
	Description              string                           `json:"description"`
	DescriptionLocalizations map[string]string                `json:"description_localizations,omitempty"`
	Required                 *bool                            `json:"required,omitempty"`
	Choices                  []ApplicationCommandOptionChoice `json:"choices,omitempty"`
	Options                  []ApplicationCommandOption       `json:"options,omitempty"`
	ChannelTypes             []int                            `json:"channel_types,omitempty"`
	MinValue                 *float64                         `json:"min_value,omitempty"`
	MaxValue                 *float64                         `json:"max_value,omitempty"`
	MinLength                *int                             `json:"min_length,omitempty"`
	MaxLength                *int                             `json:"max_length,omitempty"`
	Autocomplete             *bool                            `json:"autocomplete,omitempty"`
}

// ApplicationCommandOptionChoice is a predefined value for a string, integer
// or number option. Value is a string, an integer or a float.
type ApplicationCommandOptionChoice struct {
	Name              string            `json:"name"`
	NameLocalizations map[string]string `json:"name_localizations,omitempty"`
	Value             any               `json:"value"`
}
