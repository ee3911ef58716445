// Package agent is the single-instance orchestrator: one long-lived loop
// that consumes inbound messages and rhythm triggers from a queue, drives
// the session manager, memory store and context assembler, calls the
// completion service and dispatches the reply. One agent exists per user;
// the queue is what serializes session mutation.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"github.com/mrmicaiah/bethany/pkg/ai"
	"github.com/mrmicaiah/bethany/pkg/assembler"
	"github.com/mrmicaiah/bethany/pkg/library"
	"github.com/mrmicaiah/bethany/pkg/memory"
	"github.com/mrmicaiah/bethany/pkg/messaging"
	"github.com/mrmicaiah/bethany/pkg/network"
	"github.com/mrmicaiah/bethany/pkg/prompts"
	"github.com/mrmicaiah/bethany/pkg/session"
)

// SilenceSentinel is the explicit no-reply signal. A rhythm that answers
// with it produces no outbound message and no error.
const SilenceSentinel = "[SILENCE]"

const (
	apologyReply    = "ugh. my brain glitched for a second. say that again?"
	operatorMessage = "bethany operator alert: the completion provider reports quota/billing exhaustion. no replies are going out until that is fixed."

	requestTimeout = 90 * time.Second
	queueDepth     = 64
)

type RequestKind int

const (
	KindMessage RequestKind = iota
	KindRhythm
	KindCleanup
)

type Request struct {
	Kind    RequestKind
	Message string
	Rhythm  RhythmName
}

type Config struct {
	UserName        string
	UserAddress     string
	OperatorAddress string
	Timezone        string
	RetentionDays   int
}

type Services struct {
	Memory      *memory.Store
	Sessions    *session.Manager
	Completions ai.Completion
	Sender      messaging.Sender
	Contacts    *network.Service
	Library     *library.Service
}

type Agent struct {
	logger   *log.Logger
	services Services
	cfg      Config
	location *time.Location

	requests      chan Request
	nc            *nats.Conn
	quotaNotified bool
}

func New(logger *log.Logger, services Services, cfg Config) (*Agent, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return &Agent{
		logger:   logger,
		services: services,
		cfg:      cfg,
		location: location,
		requests: make(chan Request, queueDepth),
	}, nil
}

// Enqueue hands a request to the agent loop. Never blocks; when the queue is
// saturated the request is dropped with a warning, which beats interleaving
// session mutation.
func (a *Agent) Enqueue(req Request) {
	select {
	case a.requests <- req:
	default:
		a.logger.Warn("Agent queue full, dropping request", "kind", req.Kind)
	}
}

// SubscribeInbound connects the webhook's NATS subject to the agent queue.
// The connection is also kept for mirroring delivered replies to observers.
func (a *Agent) SubscribeInbound(nc *nats.Conn) (*nats.Subscription, error) {
	a.nc = nc
	return nc.Subscribe(messaging.SubjectInbound, func(msg *nats.Msg) {
		var inbound messaging.InboundMessage
		if err := json.Unmarshal(msg.Data, &inbound); err != nil {
			a.logger.Warn("Dropping malformed inbound event", "error", err)
			return
		}
		a.Enqueue(Request{Kind: KindMessage, Message: inbound.Message})
	})
}

// Run consumes the queue until ctx is cancelled. Exactly one Run loop may be
// active; it is the actor that owns all session and memory mutation.
func (a *Agent) Run(ctx context.Context) {
	a.logger.Info("Agent loop started", "user", a.cfg.UserName)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Agent loop stopped")
			return
		case req := <-a.requests:
			reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			a.process(reqCtx, req)
			cancel()
		}
	}
}

func (a *Agent) process(ctx context.Context, req Request) {
	switch req.Kind {
	case KindMessage:
		a.handleMessage(ctx, req.Message)
	case KindRhythm:
		a.handleRhythm(ctx, req.Rhythm)
	case KindCleanup:
		deleted, err := a.services.Sessions.Cleanup(ctx, a.cfg.RetentionDays)
		if err != nil {
			a.logger.Error("Session cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			a.logger.Info("Session cleanup done", "deleted", deleted)
		}
	}
}

func (a *Agent) handleMessage(ctx context.Context, text string) {
	result, err := a.services.Sessions.CheckAndManageSession(ctx, "message")
	if err != nil {
		a.logger.Error("Session check failed", "error", err)
	}
	a.archivePrevious(ctx, result.PreviousSession)

	current, err := a.services.Sessions.AppendTurn(ctx, session.RoleUser, text)
	if err != nil {
		a.logger.Error("Failed to record user turn", "error", err)
	}

	hot := a.services.Memory.LoadHot(ctx)
	people := a.services.Memory.LoadPeople(ctx)

	mode := assembler.ModeSteady
	if hot == nil || hot.Core == nil || hot.Core.Name == "" {
		mode = assembler.ModeOnboarding
	}

	prompt := a.buildPrompt(hot, people, session.FormatForContext(current), mode, "", nil)

	reply, err := a.services.Completions.Complete(ctx, prompt, text)
	if err != nil {
		if ai.IsQuotaError(err) {
			a.notifyOperator(ctx, err)
			return
		}
		a.logger.Error("Completion failed", "error", err, "timeout", ai.IsTimeout(err))
		reply = apologyReply
	}

	if reply == SilenceSentinel {
		a.logger.Info("Agent chose silence for inbound message")
		return
	}

	a.deliver(ctx, reply)
}

func (a *Agent) archivePrevious(ctx context.Context, previous *session.Session) {
	if previous == nil {
		return
	}
	if err := a.services.Sessions.Archive(ctx, previous); err != nil {
		a.logger.Error("Failed to archive session", "id", previous.ID, "error", err)
		return
	}
	if len(previous.Messages) == 0 {
		return
	}

	// Fold the closed session into day-level history.
	err := a.services.Memory.AddConversationSummary(ctx, memory.ConversationSummary{
		Date:    previous.StartedAt,
		Summary: fmt.Sprintf("%s (%d messages)", previous.Title, len(previous.Messages)),
		Topics:  []string{previous.Title},
	})
	if err != nil {
		a.logger.Warn("Failed to fold session into history", "id", previous.ID, "error", err)
	}
}

func (a *Agent) buildPrompt(hot *memory.Hot, people []memory.PersonMemory, sessionBlock string, mode assembler.Mode, extra string, facts []string) string {
	personality, err := prompts.BuildPersonalitySystemPrompt(prompts.PersonalitySystemPrompt{
		UserName: a.cfg.UserName,
	})
	if err != nil {
		a.logger.Error("Failed to build personality prompt", "error", err)
	}

	return assembler.Assemble(assembler.Input{
		Personality:  personality,
		MemoryBlock:  memory.FormatForContext(hot, people),
		SessionBlock: sessionBlock,
		Mode:         mode,
		Extra:        extra,
		Now:          time.Now(),
		Location:     a.location,
		UserName:     a.cfg.UserName,
		Facts:        facts,
	})
}

// notifyOperator surfaces quota exhaustion once per process lifetime instead
// of replying to the user.
func (a *Agent) notifyOperator(ctx context.Context, cause error) {
	a.logger.Error("Completion quota exhausted", "error", cause)
	if a.quotaNotified {
		return
	}
	a.quotaNotified = true

	address := a.cfg.OperatorAddress
	if address == "" {
		address = a.cfg.UserAddress
	}
	if err := a.services.Sender.Send(ctx, address, operatorMessage); err != nil {
		a.logger.Error("Failed to deliver operator notification", "error", err)
	}
}

func (a *Agent) deliver(ctx context.Context, reply string) {
	if _, err := a.services.Sessions.AppendTurn(ctx, session.RoleAgent, reply); err != nil {
		a.logger.Error("Failed to record agent turn", "error", err)
	}
	if err := a.services.Sender.Send(ctx, a.cfg.UserAddress, reply); err != nil {
		a.logger.Error("Failed to deliver reply", "error", err)
		return
	}

	if a.nc == nil {
		return
	}
	raw, err := json.Marshal(messaging.OutboundMessage{To: a.cfg.UserAddress, Body: reply})
	if err != nil {
		return
	}
	if err := a.nc.Publish(messaging.SubjectOutbound, raw); err != nil {
		a.logger.Warn("Failed to mirror reply to the bus", "error", err)
	}
}
