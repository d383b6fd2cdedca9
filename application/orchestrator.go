package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/domain/conversation"
	"github.com/balizero/zantara-agentic/infrastructure/gateway"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
)

// memoryLockWait bounds how long a query waits for another in-flight
// query of the same user before giving up on memory persistence.
const memoryLockWait = 2 * time.Second

// Orchestrator fronts the reasoning engine for chat traffic: screens the
// query, serves fast paths without burning LLM calls, threads the user's
// history into the prompt, and persists the exchange.
type Orchestrator struct {
	engine   *Engine
	gateway  gateway.Gateway
	memory   conversation.Store
	maxSteps int
	trim     conversation.TrimOptions

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock serializes memory writes per user with a bounded wait.
type userLock struct {
	sem chan struct{}
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Engine   *Engine
	Gateway  gateway.Gateway
	Memory   conversation.Store
	MaxSteps int
	Trim     conversation.TrimOptions
}

// NewOrchestrator creates the chat front of the reasoning engine.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Trim == (conversation.TrimOptions{}) {
		cfg.Trim = conversation.DefaultTrimOptions()
	}
	return &Orchestrator{
		engine:   cfg.Engine,
		gateway:  cfg.Gateway,
		memory:   cfg.Memory,
		maxSteps: cfg.MaxSteps,
		trim:     cfg.Trim,
		locks:    map[string]*userLock{},
	}
}

// ChatRequest is one user query.
type ChatRequest struct {
	UserID string
	Query  string
}

// ChatResponse is the orchestrator's answer.
type ChatResponse struct {
	QueryID  string           `json:"query_id"`
	Answer   string           `json:"answer"`
	Sources  []agent.Source   `json:"sources,omitempty"`
	Score    float64          `json:"evidence_score"`
	Steps    int              `json:"steps"`
	Usage    agent.TokenUsage `json:"usage"`
	FastPath bool             `json:"fast_path,omitempty"`
}

// Chat answers one query, blocking until done.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, agent.ErrEmptyQuery
	}

	queryID := uuid.NewString()
	log := func() *logging.LogEvent {
		return logging.Info().Add(logging.QueryID(queryID)).Add(logging.UserID(req.UserID))
	}

	if reason, blocked := screenInjection(query); blocked {
		log().Add(logging.Str("reason", reason)).Msg("query blocked")
		return &ChatResponse{
			QueryID:  queryID,
			Answer:   refusalMessage(query),
			FastPath: true,
		}, nil
	}

	if answer, ok := fastPath(query); ok {
		log().Msg("fast path")
		o.remember(ctx, req.UserID, query, answer)
		return &ChatResponse{QueryID: queryID, Answer: answer, FastPath: true}, nil
	}

	loopReq, err := o.buildLoopRequest(ctx, queryID, req, query)
	if err != nil {
		return nil, err
	}
	result, err := o.engine.ExecuteReActLoop(ctx, loopReq)
	if err != nil {
		return nil, fmt.Errorf("chat %s: %w", queryID, err)
	}

	o.remember(ctx, req.UserID, query, result.State.FinalAnswer)
	return &ChatResponse{
		QueryID: queryID,
		Answer:  result.State.FinalAnswer,
		Sources: result.State.Sources,
		Score:   result.State.EvidenceScore,
		Steps:   result.State.CurrentStep,
		Usage:   result.Usage,
	}, nil
}

// ChatStream answers one query as an event stream. Fast paths and blocked
// queries still produce a well-formed stream.
func (o *Orchestrator) ChatStream(ctx context.Context, req ChatRequest) (<-chan Event, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, agent.ErrEmptyQuery
	}

	queryID := uuid.NewString()

	if reason, blocked := screenInjection(query); blocked {
		logging.Info().
			Add(logging.QueryID(queryID)).
			Add(logging.Str("reason", reason)).
			Msg("query blocked")
		return o.staticStream(refusalMessage(query)), nil
	}
	if answer, ok := fastPath(query); ok {
		o.remember(ctx, req.UserID, query, answer)
		return o.staticStream(answer), nil
	}

	loopReq, err := o.buildLoopRequest(ctx, queryID, req, query)
	if err != nil {
		return nil, err
	}
	userID, state := req.UserID, loopReq.State
	prev := loopReq.PostProcess
	loopReq.PostProcess = func(answer string) (string, error) {
		if prev != nil {
			if processed, err := prev(answer); err == nil {
				answer = processed
			}
		}
		o.remember(ctx, userID, state.Query, answer)
		return answer, nil
	}
	return o.engine.ExecuteReActLoopStream(ctx, loopReq)
}

// staticStream wraps a fixed answer in the standard event shape.
func (o *Orchestrator) staticStream(answer string) <-chan Event {
	events := make(chan Event, 2)
	events <- Event{Type: EventEvidence, Score: 0, Strength: string(agent.EvidenceNone)}
	events <- Event{Type: EventFinalAnswer, Text: answer}
	close(events)
	return events
}

// buildLoopRequest assembles state, history-primed chat, and prompts.
func (o *Orchestrator) buildLoopRequest(ctx context.Context, queryID string, req ChatRequest, query string) (*LoopRequest, error) {
	state := agent.NewState(queryID, query, o.maxSteps)

	chat := gateway.NewChat(queryID, systemPrompt)
	if o.memory != nil && req.UserID != "" {
		history, err := o.memory.Recent(ctx, req.UserID, o.trim.MaxMessages*2)
		if err != nil && err != conversation.ErrNotFound {
			logging.Warn().
				Add(logging.QueryID(queryID)).
				Add(logging.ErrorField(err)).
				Msg("history load failed, continuing without")
		}
		for _, m := range history.Trim(o.trim) {
			chat.Append(string(m.Role), m.Content)
		}
	}

	return &LoopRequest{
		State:         state,
		Gateway:       o.gateway,
		Chat:          chat,
		InitialPrompt: InitialPrompt(query, o.engine.registry.List()),
		Tier:          gateway.TierFlash,
		UserID:        req.UserID,
	}, nil
}

// remember persists the exchange under a bounded per-user lock. Memory is
// best effort: a full lock queue or a store failure loses the write, not
// the answer.
func (o *Orchestrator) remember(ctx context.Context, userID, query, answer string) {
	if o.memory == nil || userID == "" {
		return
	}

	lock := o.lockFor(userID)
	select {
	case lock.sem <- struct{}{}:
		defer func() { <-lock.sem }()
	case <-time.After(memoryLockWait):
		logging.Warn().Add(logging.UserID(userID)).Msg("memory lock wait exceeded, dropping write")
		return
	case <-ctx.Done():
		return
	}

	err := o.memory.Append(ctx, userID,
		conversation.NewMessage(conversation.RoleUser, query),
		conversation.NewMessage(conversation.RoleAssistant, answer),
	)
	if err != nil {
		logging.Warn().
			Add(logging.UserID(userID)).
			Add(logging.ErrorField(err)).
			Msg("memory write failed")
	}
}

func (o *Orchestrator) lockFor(userID string) *userLock {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[userID]
	if !ok {
		l = &userLock{sem: make(chan struct{}, 1)}
		o.locks[userID] = l
	}
	return l
}
