package rest

import (
	"context"

	"github.com/louisbranch/commandeer/internal/discord"
)

// Catalog is the published command set of one application, either global
// or scoped to a guild.
type Catalog struct {
	client  *Client
	appID   string
	guildID string
}

// Catalog returns the command catalog for appID; an empty guildID selects
// the global catalog.
func (c *Client) Catalog(appID, guildID string) *Catalog {
	return &Catalog{client: c, appID: appID, guildID: guildID}
}

// Scope names the catalog for logs and audit records.
func (c *Catalog) Scope() string {
	if c.guildID == "" {
		return "global"
	}
	return "guild:" + c.guildID
}

func (c *Catalog) List(ctx context.Context) ([]discord.ApplicationCommand, error) {
	return c.client.ListCommands(ctx, c.appID, c.guildID)
}

func (c *Catalog) ReplaceAll(ctx context.Context, cmds []discord.ApplicationCommand) error {
	_, err := c.client.OverwriteCommands(ctx, c.appID, c.guildID, cmds)
	return err
}
