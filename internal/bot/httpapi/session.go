package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/louisbranch/commandeer/internal/discord"
)

// MessageClient sends webhook messages for acknowledged interactions.
type MessageClient interface {
	EditOriginal(ctx context.Context, appID, interactionToken string, data discord.MessageData) error
	CreateFollowup(ctx context.Context, appID, interactionToken string, data discord.MessageData) error
}

var errNotAcknowledged = errors.New("follow-up sent before the interaction was acknowledged")

// initialReply is the first answer to an interaction, written as the HTTP
// response body.
type initialReply struct {
	response discord.InteractionResponse
	files    []discord.File
}

// session is the responder for one interaction. The first Respond or Defer
// becomes the HTTP reply; later replies go through the webhook client.
type session struct {
	client MessageClient
	appID  string
	token  string

	mu           sync.Mutex
	claimed      bool
	acknowledged bool
	initial      chan initialReply

	// sent is closed once the initial reply has reached the platform, or
	// will never be written. Webhook calls wait on it.
	sent     chan struct{}
	sentOnce sync.Once
}

func newSession(client MessageClient, interaction *discord.Interaction) *session {
	return &session{
		client:  client,
		appID:   interaction.ApplicationID,
		token:   interaction.Token,
		initial: make(chan initialReply, 1),
		sent:    make(chan struct{}),
	}
}

func (s *session) markSent() {
	s.sentOnce.Do(func() { close(s.sent) })
}

// waitSent blocks until the initial reply is out so that webhook calls never
// reach the platform before the interaction is acknowledged.
func (s *session) waitSent(ctx context.Context) error {
	select {
	case <-s.sent:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for initial reply: %w", ctx.Err())
	}
}

// claim reserves the HTTP reply. Only the first caller wins.
func (s *session) claim(reply initialReply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return false
	}
	s.claimed = true
	s.acknowledged = true
	s.initial <- reply
	return true
}

func (s *session) Respond(ctx context.Context, data discord.MessageData) error {
	reply := initialReply{
		response: discord.InteractionResponse{
			Type: discord.ResponseTypeChannelMessageWithSource,
			Data: &data,
		},
		files: data.Files,
	}
	if s.claim(reply) {
		return nil
	}
	if err := s.waitSent(ctx); err != nil {
		return err
	}
	return s.client.EditOriginal(ctx, s.appID, s.token, data)
}

func (s *session) Defer(_ context.Context, ephemeral bool) error {
	reply := initialReply{
		response: discord.InteractionResponse{Type: discord.ResponseTypeDeferredChannelMessageWithSource},
	}
	if ephemeral {
		reply.response.Data = &discord.MessageData{Flags: discord.MessageFlagEphemeral}
	}
	s.claim(reply)
	return nil
}

func (s *session) Followup(ctx context.Context, data discord.MessageData) error {
	if !s.Acknowledged() {
		return errNotAcknowledged
	}
	if err := s.waitSent(ctx); err != nil {
		return err
	}
	return s.client.CreateFollowup(ctx, s.appID, s.token, data)
}

func (s *session) Acknowledged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acknowledged
}

// autoDefer acknowledges on the chain's behalf. It reports false when the
// chain already claimed the reply.
func (s *session) autoDefer() bool {
	return s.claim(initialReply{
		response: discord.InteractionResponse{Type: discord.ResponseTypeDeferredChannelMessageWithSource},
	})
}
