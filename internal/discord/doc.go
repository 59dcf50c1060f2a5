// Package discord defines the JSON wire shapes exchanged with the chat
// platform: application command definitions, inbound interactions and
// interaction responses.
package discord
