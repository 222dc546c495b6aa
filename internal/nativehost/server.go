package nativehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/runger/selact/internal/catalog"
	"github.com/runger/selact/internal/dispatch"
	"github.com/runger/selact/internal/engine"
	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/selection"
)

// Request types.
const (
	TypePointer       = "pointer"
	TypeSelection     = "selection"
	TypeState         = "state"
	TypeDispatch      = "dispatch"
	TypeReorderBubble = "reorderBubble"
	TypeReorderGroup  = "reorderGroup"
	TypeDelete        = "delete"

	// TypeExpand is pushed, never requested.
	TypeExpand = "expand"
)

// Request is one inbound message. Fields not used by Type are ignored.
// A request without an ID is a notification and gets no reply.
type Request struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	Text   string `json:"text,omitempty"`
	Source string `json:"source,omitempty"`

	ProviderID   int64  `json:"providerId,omitempty"`
	ActivationID string `json:"activationId,omitempty"`

	From int `json:"from,omitempty"`
	To   int `json:"to,omitempty"`
}

// Response is one outbound message: a reply carries the request ID, a pushed
// notification carries a Type instead.
type Response struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Notice string `json:"notice,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// State is the data of a state reply.
type State struct {
	Selection selection.State     `json:"selection"`
	Position  selection.Point     `json:"position"`
	Bubble    []provider.Provider `json:"bubble"`
	Panel     []catalog.Group     `json:"panel"`
}

// SelectionReply is the data of a selection reply.
type SelectionReply struct {
	Event     string          `json:"event"`
	Selection selection.State `json:"selection"`
}

// ServerConfig contains configuration for the host loop.
type ServerConfig struct {
	// Transport is the framed stdin/stdout pair (required)
	Transport *Transport

	// Engine serves every request (required)
	Engine *engine.Engine

	// Logger is the structured logger (optional, discards if nil)
	Logger *slog.Logger
}

// Server runs the request loop for one browser connection.
type Server struct {
	transport *Transport
	engine    *engine.Engine
	logger    *slog.Logger
}

// NewServer creates a host server.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Transport.logger = logger
	return &Server{transport: cfg.Transport, engine: cfg.Engine, logger: logger}, nil
}

// Serve handles messages until the browser closes stdin or ctx is done.
// Malformed and oversized messages are answered with an error and skipped.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("native host starting")
	defer s.engine.Wait()

	msgs := make(chan []byte)
	errChan := make(chan error, 1)
	go func() {
		for {
			msg, err := s.transport.Receive()
			if errors.Is(err, ErrMessageTooLarge) {
				s.logger.Warn("rejected message", "error", err)
				s.reply(Response{Error: err.Error()})
				continue
			}
			if err != nil {
				errChan <- err
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("native host stopping", "reason", ctx.Err())
			return nil
		case err := <-errChan:
			if errors.Is(err, io.EOF) {
				s.logger.Info("native host stopped", "reason", "stdin closed")
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		case msg := <-msgs:
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg []byte) {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		s.logger.Warn("malformed message", "error", err)
		s.reply(Response{Error: "malformed message: " + err.Error()})
		return
	}

	resp := s.Handle(ctx, req)
	if req.ID == "" {
		if resp.Error != "" {
			s.logger.Debug("notification failed", "type", req.Type, "error", resp.Error)
		}
		return
	}
	s.reply(resp)
}

func (s *Server) reply(resp Response) {
	if err := s.transport.Send(resp); err != nil {
		s.logger.Warn("failed to send reply", "id", resp.ID, "error", err)
	}
}

// Handle serves one request and returns its reply.
func (s *Server) Handle(ctx context.Context, req Request) Response {
	data, err := s.route(ctx, req)
	if err == nil {
		return Response{ID: req.ID, OK: true, Data: data}
	}

	resp := Response{ID: req.ID, Error: err.Error()}
	var actionErr *dispatch.ActionError
	if errors.As(err, &actionErr) {
		resp.Notice = actionErr.Notice()
	}
	return resp
}

func (s *Server) route(ctx context.Context, req Request) (any, error) {
	switch req.Type {
	case TypePointer:
		s.engine.OnPointerMove(req.X, req.Y)
		return nil, nil

	case TypeSelection:
		ev := s.engine.OnSelectionChange(req.Text, req.Source)
		return SelectionReply{Event: ev.String(), Selection: s.engine.Selection()}, nil

	case TypeState:
		return s.state(ctx)

	case TypeDispatch:
		activation := req.ActivationID
		if activation == "" {
			activation = uuid.NewString()
		}
		res, err := s.engine.Dispatch(ctx, req.ProviderID, activation)
		if err != nil {
			return nil, err
		}
		return res, nil

	case TypeReorderBubble:
		return s.engine.ReorderBubble(ctx, req.From, req.To)

	case TypeReorderGroup:
		return s.engine.ReorderGroup(ctx, req.From, req.To)

	case TypeDelete:
		out, err := s.engine.Delete(ctx, req.ProviderID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"outcome":         out.String(),
			"confirmWindowMs": s.engine.ConfirmWindow().Milliseconds(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown request type %q", req.Type)
	}
}

func (s *Server) state(ctx context.Context) (State, error) {
	proj, err := s.engine.Projection(ctx)
	if err != nil {
		return State{}, err
	}
	pos, err := s.engine.BubblePosition(ctx)
	if err != nil {
		return State{}, err
	}
	return State{
		Selection: s.engine.Selection(),
		Position:  pos,
		Bubble:    proj.Bubble,
		Panel:     proj.Panel,
	}, nil
}
