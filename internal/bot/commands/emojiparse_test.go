package commands

import (
	"reflect"
	"testing"
)

func TestParseEmojis(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  ParseOptions
		want  []string
	}{
		{name: "no markup", input: "hello :smile:", want: []string{}},
		{name: "still", input: "<:blob:111>", opts: ParseOptions{Format: "webp"}, want: []string{"blob.webp https://cdn.discordapp.com/emojis/111.webp"}},
		{name: "default format", input: "<:blob:111>", want: []string{"blob.png https://cdn.discordapp.com/emojis/111.png"}},
		{name: "animated as gif", input: "<a:dance:222>", opts: ParseOptions{AllowGIF: true}, want: []string{"dance.gif https://cdn.discordapp.com/emojis/222.gif"}},
		{name: "animated without gif", input: "<a:dance:222>", opts: ParseOptions{Format: "jpg"}, want: []string{"dance.jpg https://cdn.discordapp.com/emojis/222.jpg"}},
		{
			name:  "duplicate names",
			input: "<:cat:1><:cat:2> <:cat:3>",
			want: []string{
				"cat.png https://cdn.discordapp.com/emojis/1.png",
				"cat-2.png https://cdn.discordapp.com/emojis/2.png",
				"cat-3.png https://cdn.discordapp.com/emojis/3.png",
			},
		},
		{
			name:  "normalized names collide",
			input: "<:Party_Parrot:1> <:party__parrot:2>",
			opts:  ParseOptions{Normalize: true},
			want: []string{
				"party-parrot.png https://cdn.discordapp.com/emojis/1.png",
				"party-parrot-2.png https://cdn.discordapp.com/emojis/2.png",
			},
		},
		{name: "custom cdn", input: "<:x:9>", opts: ParseOptions{CDN: "http://cdn.test/"}, want: []string{"x.png http://cdn.test/9.png"}},
		{name: "normalized to empty uses id", input: "<:___:77>", opts: ParseOptions{Normalize: true}, want: []string{"77.png https://cdn.discordapp.com/emojis/77.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emojis := ParseEmojis(tt.input, tt.opts)
			got := make([]string, 0, len(emojis))
			for _, emoji := range emojis {
				got = append(got, emoji.FileName()+" "+emoji.URL)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseEmojis(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseEmojisKeepsInput(t *testing.T) {
	emojis := ParseEmojis("  <a:wave:42>  ", ParseOptions{AllowGIF: true})
	if len(emojis) != 1 {
		t.Fatalf("emojis = %+v", emojis)
	}
	if emojis[0].Input != "<a:wave:42>" || !emojis[0].Animated || emojis[0].ID != "42" {
		t.Fatalf("emoji = %+v", emojis[0])
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"PartyParrot":   "partyparrot",
		"party_parrot":  "party-parrot",
		"__a__b__":      "a-b",
		"already-fine":  "already-fine",
		"Mixed--Dashes": "mixed-dashes",
		"___":           "",
	}
	for input, want := range tests {
		if got := NormalizeName(input); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", input, got, want)
		}
	}
}
