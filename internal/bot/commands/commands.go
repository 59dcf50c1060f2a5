// Package commands declares the bot's slash commands.
package commands

import (
	"time"

	"github.com/louisbranch/commandeer/internal/bot/command"
)

// Options collects the dependencies of every command.
type Options struct {
	Emojis EmojisOptions
	Debug  DebugOptions
	Now    func() time.Time
}

// All returns every command in registration order.
func All(opts Options) []*command.Node {
	return []*command.Node{
		Ping(opts.Now),
		Emojis(opts.Emojis),
		Debug(opts.Debug),
	}
}
