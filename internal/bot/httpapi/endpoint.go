// Package httpapi serves the interactions endpoint: it verifies signed
// requests, answers platform pings, and hands command interactions to the
// dispatcher while holding the HTTP reply open for the initial response.
package httpapi

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/louisbranch/commandeer/internal/bot/command"
	"github.com/louisbranch/commandeer/internal/discord"
	"github.com/louisbranch/commandeer/internal/platform/httpx"
	"github.com/louisbranch/commandeer/internal/platform/requestctx"
	"github.com/louisbranch/commandeer/internal/platform/timeouts"
)

// InteractionsPath is the route the platform posts interactions to.
const InteractionsPath = "/interactions"

// DefaultMaxBodyBytes caps an interaction payload.
const DefaultMaxBodyBytes = 1 << 20

// Dispatcher runs command interactions.
type Dispatcher interface {
	Dispatch(ctx context.Context, interaction *discord.Interaction, responder command.Responder) error
}

// Options configures an Endpoint.
type Options struct {
	PublicKey  ed25519.PublicKey
	Dispatcher Dispatcher
	Client     MessageClient
	Logger     *log.Logger
	// InitialResponseTimeout is how long to wait for the chain's first
	// reply before deferring. Zero selects timeouts.InitialResponse.
	InitialResponseTimeout time.Duration
	MaxBodyBytes           int64
}

// Endpoint is the interactions HTTP handler.
type Endpoint struct {
	publicKey      ed25519.PublicKey
	dispatcher     Dispatcher
	client         MessageClient
	logger         *log.Logger
	initialTimeout time.Duration
	maxBodyBytes   int64

	inflight sync.WaitGroup
}

// New validates opts and returns an endpoint.
func New(opts Options) (*Endpoint, error) {
	if len(opts.PublicKey) != ed25519.PublicKeySize {
		return nil, errors.New("public key is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if opts.Client == nil {
		return nil, errors.New("message client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	initialTimeout := opts.InitialResponseTimeout
	if initialTimeout <= 0 {
		initialTimeout = timeouts.InitialResponse
	}
	maxBodyBytes := opts.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Endpoint{
		publicKey:      opts.PublicKey,
		dispatcher:     opts.Dispatcher,
		client:         opts.Client,
		logger:         logger,
		initialTimeout: initialTimeout,
		maxBodyBytes:   maxBodyBytes,
	}, nil
}

// Routes returns the full HTTP handler with shared middleware applied.
func (e *Endpoint) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(InteractionsPath, httpx.Chain(e,
		httpx.RequireMethod(http.MethodPost),
		httpx.LimitBody(e.maxBodyBytes),
	))
	mux.Handle("/healthz", httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}), httpx.RequireMethod(http.MethodGet)))
	return httpx.Chain(mux,
		httpx.RecoverPanic(e.logger),
		httpx.RequestID(),
		httpx.AccessLog(e.logger),
	)
}

// ServeHTTP handles one signed interaction request.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = httpx.WriteJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "read request body")
		return
	}
	signature := r.Header.Get(discord.HeaderSignature)
	timestamp := r.Header.Get(discord.HeaderTimestamp)
	if err := discord.Verify(e.publicKey, signature, timestamp, body); err != nil {
		e.logger.Debug("rejected interaction signature", "request_id", requestctx.RequestIDFromContext(r.Context()), "err", err)
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, "invalid request signature")
		return
	}

	var interaction discord.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "invalid interaction payload")
		return
	}

	switch interaction.Type {
	case discord.InteractionTypePing:
		_ = httpx.WriteJSON(w, http.StatusOK, discord.InteractionResponse{Type: discord.ResponseTypePong})
	case discord.InteractionTypeApplicationCommandAutocomplete:
		_ = httpx.WriteJSON(w, http.StatusOK, discord.AutocompleteResponse{
			Type: discord.ResponseTypeAutocompleteResult,
			Data: discord.AutocompleteData{Choices: []discord.ApplicationCommandOptionChoice{}},
		})
	case discord.InteractionTypeApplicationCommand:
		e.serveCommand(w, r, &interaction)
	default:
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "unsupported interaction type")
	}
}

// serveCommand starts the chain in its own goroutine and writes whichever
// initial reply comes first: the chain's own, or a deferral once the
// initial response window closes. A chain that finishes without replying
// leaves the interaction unanswered.
func (e *Endpoint) serveCommand(w http.ResponseWriter, r *http.Request, interaction *discord.Interaction) {
	sess := newSession(e.client, interaction)
	defer sess.markSent()
	done := make(chan struct{})
	ctx := context.WithoutCancel(r.Context())

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer close(done)
		_ = e.dispatcher.Dispatch(ctx, interaction, sess)
	}()

	timer := time.NewTimer(e.initialTimeout)
	defer timer.Stop()

	select {
	case reply := <-sess.initial:
		e.writeReply(w, reply)
	case <-done:
		select {
		case reply := <-sess.initial:
			e.writeReply(w, reply)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	case <-timer.C:
		if sess.autoDefer() {
			e.logger.Debug("deferred slow interaction", "interaction_id", interaction.ID)
		}
		e.writeReply(w, <-sess.initial)
	case <-r.Context().Done():
	}
}

func (e *Endpoint) writeReply(w http.ResponseWriter, reply initialReply) {
	var (
		body        []byte
		contentType = "application/json"
		err         error
	)
	if len(reply.files) == 0 {
		body, err = json.Marshal(reply.response)
	} else {
		response := reply.response
		data := response.Data.WithAttachments()
		response.Data = &data
		var encoded io.Reader
		encoded, contentType, err = discord.EncodeMultipart(response, reply.files)
		if err == nil {
			body, err = io.ReadAll(encoded)
		}
	}
	if err != nil {
		e.logger.Error("encode interaction reply", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// A sized, flushed body is complete on the wire before any webhook call
	// for the same interaction is let through.
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		e.logger.Warn("write interaction reply", "err", err)
		return
	}
	if err := http.NewResponseController(w).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		e.logger.Warn("flush interaction reply", "err", err)
	}
}

// Drain waits for in-flight command chains to finish or ctx to end.
func (e *Endpoint) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
