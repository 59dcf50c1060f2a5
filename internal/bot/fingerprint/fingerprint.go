// Package fingerprint computes content-addressed digests of command
// definitions so a local set and a remote catalog can be compared without a
// structural diff.
//
// Definitions are first reduced to a canonical form: server-assigned fields
// are dropped, platform defaults are made explicit, flags that default to
// false are only kept when set, set-like integer lists are sorted and empty
// values are pruned. The canonical form is serialized as canonical JSON and
// hashed with SHA-256.
package fingerprint

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/platform/encoding"
)

// Canonical returns the normalized form of cmd that Command hashes.
func Canonical(cmd discord.ApplicationCommand) map[string]any {
	commandType := cmd.Type
	if commandType == 0 {
		commandType = discord.CommandTypeChatInput
	}
	out := map[string]any{
		"type":                      int(commandType),
		"name":                      cmd.Name,
		"name_localizations":        maps.Clone(cmd.NameLocalizations),
		"description":               cmd.Description,
		"description_localizations": maps.Clone(cmd.DescriptionLocalizations),
		"options":                   canonicalOptions(cmd.Options),
		"nsfw":                      cmd.NSFW != nil && *cmd.NSFW,
		"integration_types":         sortedInts(cmd.IntegrationTypes),
		"contexts":                  sortedInts(cmd.Contexts),
	}
	if cmd.DefaultMemberPermissions != nil {
		out["default_member_permissions"] = *cmd.DefaultMemberPermissions
	}
	if cmd.Handler != nil {
		out["handler"] = *cmd.Handler
	}
	return out
}

func canonicalOptions(options []discord.ApplicationCommandOption) []any {
	if len(options) == 0 {
		return nil
	}
	out := make([]any, len(options))
	for i, option := range options {
		out[i] = canonicalOption(option)
	}
	return out
}

func canonicalOption(option discord.ApplicationCommandOption) map[string]any {
	out := map[string]any{
		"type":                      int(option.Type),
		"name":                      option.Name,
		"name_localizations":        maps.Clone(option.NameLocalizations),
		"description":               option.Description,
		"description_localizations": maps.Clone(option.DescriptionLocalizations),
	}
	setFlag(out, "required", option.Required)

	switch option.Type {
	case discord.OptionTypeChannel:
		out["channel_types"] = sortedInts(option.ChannelTypes)
	case discord.OptionTypeInteger, discord.OptionTypeNumber:
		setValue(out, "min_value", option.MinValue)
		setValue(out, "max_value", option.MaxValue)
		setFlag(out, "autocomplete", option.Autocomplete)
		out["choices"] = canonicalChoices(option.Choices)
	case discord.OptionTypeString:
		setValue(out, "min_length", option.MinLength)
		setValue(out, "max_length", option.MaxLength)
		setFlag(out, "autocomplete", option.Autocomplete)
		out["choices"] = canonicalChoices(option.Choices)
	case discord.OptionTypeSubcommand, discord.OptionTypeSubcommandGroup:
		out["options"] = canonicalOptions(option.Options)
	}
	return out
}

func canonicalChoices(choices []discord.ApplicationCommandOptionChoice) []any {
	if len(choices) == 0 {
		return nil
	}
	out := make([]any, len(choices))
	for i, choice := range choices {
		out[i] = map[string]any{
			"name":               choice.Name,
			"name_localizations": maps.Clone(choice.NameLocalizations),
			"value":              choice.Value,
		}
	}
	return out
}

// setFlag records a boolean only when it is true; false and absent are the
// same to the platform.
func setFlag(out map[string]any, key string, flag *bool) {
	if flag != nil && *flag {
		out[key] = true
	}
}

func setValue[T any](out map[string]any, key string, value *T) {
	if value != nil {
		out[key] = *value
	}
}

func sortedInts(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}

// Command returns the hex digest of one definition.
func Command(cmd discord.ApplicationCommand) (string, error) {
	digest, err := encoding.ContentHash(Canonical(cmd), encoding.WithoutEmpty())
	if err != nil {
		return "", fmt.Errorf("fingerprint command %q: %w", cmd.Name, err)
	}
	return digest, nil
}

// Empty is the digest of an empty command set.
var Empty = encoding.SHA256Hex([]byte{0})

// Many returns an order-insensitive digest of a command set. Commands are
// keyed by type and name, the per-command digests are ordered by key and the
// resulting list is hashed again.
func Many(cmds []discord.ApplicationCommand) (string, error) {
	if len(cmds) == 0 {
		return Empty, nil
	}
	type keyed struct {
		key    string
		digest string
	}
	entries := make([]keyed, 0, len(cmds))
	for _, cmd := range cmds {
		digest, err := Command(cmd)
		if err != nil {
			return "", err
		}
		commandType := cmd.Type
		if commandType == 0 {
			commandType = discord.CommandTypeChatInput
		}
		entries = append(entries, keyed{key: strconv.Itoa(int(commandType)) + ":" + cmd.Name, digest: digest})
	}
	slices.SortFunc(entries, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.digest, b.digest)
	})
	digests := make([]string, len(entries))
	for i, entry := range entries {
		digests[i] = entry.digest
	}
	digest, err := encoding.ContentHash(digests, encoding.WithoutEmpty())
	if err != nil {
		return "", fmt.Errorf("fingerprint command set: %w", err)
	}
	return digest, nil
}
