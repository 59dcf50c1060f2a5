package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/platform/i18n"
)

// DefaultProgressInterval spaces progress edits of the original reply.
const DefaultProgressInterval = 250 * time.Millisecond

// EmojisOptions configures the emojis command.
type EmojisOptions struct {
	Fetcher Fetcher
	// CDN overrides DefaultEmojiCDN.
	CDN              string
	Rate             rate.Limit
	Burst            int
	ProgressInterval time.Duration
	Logger           *log.Logger
	Now              func() time.Time
}

type emojisHandler struct {
	downloader *Downloader
	cdn        string
	interval   time.Duration
	logger     *log.Logger
	now        func() time.Time
}

// Emojis returns the command that downloads custom emojis from its input
// and replies with a zip archive.
func Emojis(opts EmojisOptions) *command.Node {
	h := &emojisHandler{
		downloader: NewDownloader(opts.Fetcher, opts.Rate, opts.Burst),
		cdn:        opts.CDN,
		interval:   opts.ProgressInterval,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if h.interval <= 0 {
		h.interval = DefaultProgressInterval
	}
	if h.logger == nil {
		h.logger = log.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}

	node := command.New("emojis", "Will return with a zip file containing emojis given").
		Localize("pt-BR", "emojis", "Retorna um arquivo zip com os emojis informados").
		Localize("es-ES", "emojis", "Devuelve un archivo zip con los emojis indicados")
	command.AddOptions(node,
		command.String("input", "The emojis to download. No fixed size limit.", command.Required()),
		command.String("format", "Preferred format for the emojis. Default is png.", command.Choices(
			command.Choice("png", "png"),
			command.Choice("jpg", "jpg"),
			command.Choice("webp", "webp"),
		)),
		command.Boolean("animated", "Whether to include animated emojis as gif. Default is true."),
		command.Boolean("normalize", "Will attempt to normalize emoji names to lowercase with hyphens. Default is false."),
	)
	return node.Handle(h.handle)
}

func (h *emojisHandler) handle(c *command.Context, _ command.Next) error {
	if err := c.Defer(false); err != nil {
		return fmt.Errorf("defer reply: %w", err)
	}
	printer := i18n.Printer(c.Locale())

	emojis := ParseEmojis(stringOption(c, "input", ""), ParseOptions{
		Format:    stringOption(c, "format", "png"),
		AllowGIF:  boolOption(c, "animated", true),
		Normalize: boolOption(c, "normalize", false),
		CDN:       h.cdn,
	})
	if len(emojis) == 0 {
		return c.Respond(discord.MessageData{
			Embeds: []discord.Embed{discord.ErrorEmbed(printer.Sprintf("emojis.none_found"))},
		})
	}

	ctx := c.Context()
	responder := c.Responder()
	progress := newLatestThrottle(h.interval, func(p Progress) {
		if err := responder.Respond(ctx, discord.MessageData{Content: progressText(printer, p)}); err != nil {
			h.logger.Debug("edit emoji progress", "err", err)
		}
	})
	result := h.downloader.Download(ctx, emojis, progress.Push)
	progress.Stop()

	if err := c.Respond(discord.MessageData{Content: printer.Sprintf("emojis.archiving")}); err != nil {
		return fmt.Errorf("show archiving: %w", err)
	}
	now := h.now()
	summary := summaryText(printer, len(emojis), result)
	if len(result.Succeeded) == 0 {
		return c.Respond(discord.MessageData{Content: summary})
	}

	archive, err := Archive(result.Succeeded, now)
	if err != nil {
		return fmt.Errorf("archive emojis: %w", err)
	}
	if err := c.Respond(discord.MessageData{Content: summary}); err != nil {
		return fmt.Errorf("show summary: %w", err)
	}
	return c.Followup(discord.MessageData{
		Files: []discord.File{{
			Name:        fmt.Sprintf("emojis-%d.zip", now.UnixMilli()),
			ContentType: "application/zip",
			Data:        archive,
		}},
	})
}

func progressText(printer *message.Printer, p Progress) string {
	if p.Done >= p.Total {
		return printer.Sprintf("emojis.archiving")
	}
	return printer.Sprintf("emojis.downloading", p.Done, p.Total)
}

func summaryText(printer *message.Printer, requested int, result DownloadResult) string {
	lines := []string{
		printer.Sprintf("emojis.done"),
		printer.Sprintf("emojis.summary", requested, len(result.Succeeded), len(result.Failed)),
	}
	if len(result.Failed) > 0 {
		inputs := make([]string, 0, len(result.Failed))
		for _, emoji := range result.Failed {
			inputs = append(inputs, "`"+emoji.Input+"`")
		}
		lines = append(lines, printer.Sprintf("emojis.failed")+"\n```\n"+strings.Join(inputs, ", ")+"\n```")
	}
	return strings.Join(lines, "\n")
}

func stringOption(c *command.Context, name, fallback string) string {
	option, ok := c.Option(name)
	if !ok {
		return fallback
	}
	value, err := option.StringValue()
	if err != nil || value == "" {
		return fallback
	}
	return value
}

func boolOption(c *command.Context, name string, fallback bool) bool {
	option, ok := c.Option(name)
	if !ok {
		return fallback
	}
	value, err := option.BoolValue()
	if err != nil {
		return fallback
	}
	return value
}
