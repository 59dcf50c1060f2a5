package commands

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultEmojiCDN is the base URL custom emoji images are served from.
const DefaultEmojiCDN = "https://cdn.discordapp.com/emojis/"

var (
	emojiMarkup   = regexp.MustCompile(`<(a?):(\w+):(\d+)>`)
	nonNameRune   = regexp.MustCompile(`[^a-z0-9-]`)
	repeatHyphens = regexp.MustCompile(`-{2,}`)
)

// Emoji is one downloadable custom emoji parsed from user input.
type Emoji struct {
	// Input is the markup the emoji was parsed from.
	Input    string
	ID       string
	Name     string
	Animated bool
	Ext      string
	URL      string
}

// FileName is the archive entry name.
func (e Emoji) FileName() string {
	return e.Name + "." + e.Ext
}

// ParseOptions controls how emoji markup is turned into downloads.
type ParseOptions struct {
	// Format is the image extension for still emojis.
	Format string
	// AllowGIF downloads animated emojis as gif instead of Format.
	AllowGIF bool
	// Normalize rewrites names to lowercase words joined by hyphens.
	Normalize bool
	// CDN overrides DefaultEmojiCDN.
	CDN string
}

// ParseEmojis extracts custom emoji markup from input in order of
// appearance. Repeated names get a -2, -3, ... suffix.
func ParseEmojis(input string, opts ParseOptions) []Emoji {
	format := opts.Format
	if format == "" {
		format = "png"
	}
	cdn := opts.CDN
	if cdn == "" {
		cdn = DefaultEmojiCDN
	}

	matches := emojiMarkup.FindAllStringSubmatch(strings.TrimSpace(input), -1)
	seen := make(map[string]int, len(matches))
	emojis := make([]Emoji, 0, len(matches))
	for _, match := range matches {
		animated := match[1] == "a"
		name, id := match[2], match[3]
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			continue
		}
		if opts.Normalize {
			name = NormalizeName(name)
		}
		if name == "" {
			name = id
		}
		count := seen[name]
		seen[name] = count + 1
		if count > 0 {
			name = name + "-" + strconv.Itoa(count+1)
		}

		ext := format
		if animated && opts.AllowGIF {
			ext = "gif"
		}
		emojis = append(emojis, Emoji{
			Input:    match[0],
			ID:       id,
			Name:     name,
			Animated: animated,
			Ext:      ext,
			URL:      cdn + id + "." + ext,
		})
	}
	return emojis
}

// NormalizeName lowercases name, replaces every other character with a
// hyphen, collapses hyphen runs and trims hyphens at both ends.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = nonNameRune.ReplaceAllString(name, "-")
	name = repeatHyphens.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
