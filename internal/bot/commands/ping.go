package commands

import (
	"time"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/platform/i18n"
)

// Ping returns the latency check command. now defaults to time.Now.
func Ping(now func() time.Time) *command.Node {
	if now == nil {
		now = time.Now
	}
	return command.New("ping", "Check the bot's round trip latency").
		Localize("pt-BR", "ping", "Verifica a latência do bot").
		Localize("es-ES", "ping", "Comprueba la latencia del bot").
		Handle(func(c *command.Context, _ command.Next) error {
			var latency time.Duration
			if created, ok := discord.SnowflakeTime(c.Interaction().ID); ok {
				latency = max(now().Sub(created), 0)
			}
			text := i18n.Printer(c.Locale()).Sprintf("ping.pong", latency.Milliseconds())
			return c.Respond(discord.MessageData{Content: text})
		})
}
