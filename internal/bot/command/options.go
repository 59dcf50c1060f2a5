package command

import (
	"fmt"
	"maps"
	"slices"

	"github.com/louisbranch/commandeer/internal/discord"
)

// OptionFunc customizes an option under construction.
type OptionFunc func(*discord.ApplicationCommandOption)

// AddOptions appends options to node's schema. Subcommands and groups must
// be attached with AddChild; passing them here records a declaration error.
func AddOptions(node *Node, options ...discord.ApplicationCommandOption) *Node {
	if node == nil || node.frozen {
		return node
	}
	if node.kind == KindGroup {
		node.errs = append(node.errs, fmt.Errorf("group %q cannot declare options", node.name))
		return node
	}
	for _, option := range options {
		if option.Type.IsNested() {
			node.errs = append(node.errs, fmt.Errorf("%s %q: option %q is nested, use AddChild", node.kind, node.name, option.Name))
			continue
		}
		node.options = append(node.options, cloneOption(option))
	}
	return node
}

func newOption(optionType discord.OptionType, name, description string, fns []OptionFunc) discord.ApplicationCommandOption {
	option := discord.ApplicationCommandOption{Type: optionType, Name: name, Description: description}
	for _, fn := range fns {
		if fn != nil {
			fn(&option)
		}
	}
	return option
}

func String(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeString, name, description, fns)
}

func Integer(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeInteger, name, description, fns)
}

func Number(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeNumber, name, description, fns)
}

func Boolean(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeBoolean, name, description, fns)
}

func User(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeUser, name, description, fns)
}

func Channel(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeChannel, name, description, fns)
}

func Role(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeRole, name, description, fns)
}

func Mentionable(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeMentionable, name, description, fns)
}

func Attachment(name, description string, fns ...OptionFunc) discord.ApplicationCommandOption {
	return newOption(discord.OptionTypeAttachment, name, description, fns)
}

// Required marks the option mandatory.
func Required() OptionFunc {
	return func(o *discord.ApplicationCommandOption) {
		required := true
		o.Required = &required
	}
}

// Autocomplete enables autocomplete suggestions for the option.
func Autocomplete() OptionFunc {
	return func(o *discord.ApplicationCommandOption) {
		enabled := true
		o.Autocomplete = &enabled
	}
}

// Choices appends predefined values.
func Choices(choices ...discord.ApplicationCommandOptionChoice) OptionFunc {
	return func(o *discord.ApplicationCommandOption) {
		o.Choices = append(o.Choices, choices...)
	}
}

// Choice builds one predefined value.
func Choice(name string, value any) discord.ApplicationCommandOptionChoice {
	return discord.ApplicationCommandOptionChoice{Name: name, Value: value}
}

func MinValue(v float64) OptionFunc {
	return func(o *discord.ApplicationCommandOption) { o.MinValue = &v }
}

func MaxValue(v float64) OptionFunc {
	return func(o *discord.ApplicationCommandOption) { o.MaxValue = &v }
}

func MinLength(v int) OptionFunc {
	return func(o *discord.ApplicationCommandOption) { o.MinLength = &v }
}

func MaxLength(v int) OptionFunc {
	return func(o *discord.ApplicationCommandOption) { o.MaxLength = &v }
}

// ChannelTypes restricts a channel option to the given channel types.
func ChannelTypes(types ...int) OptionFunc {
	return func(o *discord.ApplicationCommandOption) {
		o.ChannelTypes = append(o.ChannelTypes, types...)
	}
}

// Localized sets the option name and description for locale.
func Localized(locale, name, description string) OptionFunc {
	return func(o *discord.ApplicationCommandOption) {
		if name != "" {
			if o.NameLocalizations == nil {
				o.NameLocalizations = map[string]string{}
			}
			o.NameLocalizations[locale] = name
		}
		if description != "" {
			if o.DescriptionLocalizations == nil {
				o.DescriptionLocalizations = map[string]string{}
			}
			o.DescriptionLocalizations[locale] = description
		}
	}
}

func cloneOptions(options []discord.ApplicationCommandOption) []discord.ApplicationCommandOption {
	if options == nil {
		return nil
	}
	out := make([]discord.ApplicationCommandOption, len(options))
	for i, option := range options {
		out[i] = cloneOption(option)
	}
	return out
}

func cloneOption(o discord.ApplicationCommandOption) discord.ApplicationCommandOption {
	out := o
	out.NameLocalizations = maps.Clone(o.NameLocalizations)
	out.DescriptionLocalizations = maps.Clone(o.DescriptionLocalizations)
	out.ChannelTypes = slices.Clone(o.ChannelTypes)
	out.Options = cloneOptions(o.Options)
	if o.Choices != nil {
		out.Choices = make([]discord.ApplicationCommandOptionChoice, len(o.Choices))
		for i, choice := range o.Choices {
			choice.NameLocalizations = maps.Clone(choice.NameLocalizations)
			out.Choices[i] = choice
		}
	}
	out.Required = clonePtr(o.Required)
	out.Autocomplete = clonePtr(o.Autocomplete)
	out.MinValue = clonePtr(o.MinValue)
	out.MaxValue = clonePtr(o.MaxValue)
	out.MinLength = clonePtr(o.MinLength)
	out.MaxLength = clonePtr(o.MaxLength)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
