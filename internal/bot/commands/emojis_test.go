package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/time/rate"

	"github.com/louisbranch/commandeer/internal/bot/command"
)

func emojisNode(fetcher Fetcher) *command.Node {
	return Emojis(EmojisOptions{
		Fetcher:          fetcher,
		CDN:              "cdn/",
		Rate:             rate.Inf,
		Burst:            4,
		ProgressInterval: time.Millisecond,
		Now:              func() time.Time { return time.UnixMilli(1700000000000) },
	})
}

func TestEmojisCommandRepliesWithArchive(t *testing.T) {
	fetcher := &mapFetcher{data: map[string][]byte{
		"cdn/1.png": []byte("blob"),
		"cdn/2.gif": []byte("dance"),
	}}
	interaction := userInteraction("u1", "emojis",
		stringArg("input", "<:blob:1> <a:dance:2> <:gone:3>"),
		boolArg("normalize", true),
	)

	responder, err := invoke(t, []*command.Node{emojisNode(fetcher)}, interaction)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if responder.deferred != 1 {
		t.Fatalf("deferred = %d, want 1", responder.deferred)
	}
	summary := responder.last().Content
	for _, want := range []string{"**Emojis Downloaded**", "`3 requested`", "`2 succeeded`", "`1 failed`", "`<:gone:3>`"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary %q missing %q", summary, want)
		}
	}
	if len(responder.followups) != 1 || len(responder.followups[0].Files) != 1 {
		t.Fatalf("followups = %+v", responder.followups)
	}
	file := responder.followups[0].Files[0]
	if file.Name != "emojis-1700000000000.zip" || file.ContentType != "application/zip" {
		t.Fatalf("file = %s (%s)", file.Name, file.ContentType)
	}
	reader, err := zip.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}
	if strings.Join(names, ",") != "blob.png,dance.gif" {
		t.Fatalf("entries = %v", names)
	}
}

func TestEmojisCommandWithoutMarkup(t *testing.T) {
	fetcher := &mapFetcher{}
	interaction := userInteraction("u1", "emojis", stringArg("input", "no emojis here"))

	responder, err := invoke(t, []*command.Node{emojisNode(fetcher)}, interaction)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	reply := responder.last()
	if len(reply.Embeds) != 1 || reply.Embeds[0].Description != "No downloadable emojis found in the input." {
		t.Fatalf("reply = %+v", reply)
	}
	if fetcher.calls != 0 || len(responder.followups) != 0 {
		t.Fatalf("calls = %d, followups = %d", fetcher.calls, len(responder.followups))
	}
}

func TestEmojisCommandAllFailed(t *testing.T) {
	fetcher := &mapFetcher{data: map[string][]byte{}}
	interaction := userInteraction("u1", "emojis", stringArg("input", "<:a:1>"))

	responder, err := invoke(t, []*command.Node{emojisNode(fetcher)}, interaction)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(responder.followups) != 0 {
		t.Fatalf("followups = %d, want 0", len(responder.followups))
	}
	if !strings.Contains(responder.last().Content, "`0 succeeded`") {
		t.Fatalf("summary = %q", responder.last().Content)
	}
}

func TestEmojisCommandDefinition(t *testing.T) {
	def := emojisNode(nil).Definition()
	if def.Name != "emojis" || len(def.Options) != 4 {
		t.Fatalf("definition = %+v", def)
	}
	if def.Options[0].Name != "input" || def.Options[0].Required == nil || !*def.Options[0].Required {
		t.Fatalf("input option = %+v", def.Options[0])
	}
	if len(def.Options[1].Choices) != 3 {
		t.Fatalf("format choices = %+v", def.Options[1].Choices)
	}
	if def.NameLocalizations["pt-BR"] != "emojis" {
		t.Fatalf("localizations = %v", def.NameLocalizations)
	}
}
