// Package mcp implements the external-tool-protocol port over the Model
// Context Protocol. Each session spawns a server process and speaks
// JSON-RPC with it over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Dialer creates stdio sessions from per-node server configuration.
type Dialer struct {
	logger *slog.Logger
}

// Option configures the dialer.
type Option func(*Dialer)

// WithLogger sets the logger used for session diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialer) { d.logger = logger }
}

// NewDialer creates a stdio dialer.
func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial spawns the configured server process. The handshake happens later,
// in Session.Connect, so a bad command surfaces as a connect error there.
func (d *Dialer) Dial(cfg domain.MCPServerConfig) (ports.ToolSession, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: server command is empty", domain.ErrProtocolConnect)
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	client, err := mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: spawn %q: %v", domain.ErrProtocolConnect, cfg.Command, err)
	}

	return &Session{
		client:  client,
		command: cfg.Command,
		logger:  d.logger,
	}, nil
}

// Session is a single stdio connection to an MCP server. It implements
// ports.ToolSession.
type Session struct {
	client  *mcpclient.Client
	command string
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error

	tools map[string]struct{}
}

// Connect performs the initialize handshake and queries the server's tools.
func (s *Session) Connect(ctx context.Context) error {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "plait",
		Version: "0.2.0",
	}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	initResult, err := s.client.Initialize(ctx, initReq)
	if err != nil {
		return fmt.Errorf("%w: initialize %q: %v", connectKind(ctx, err), s.command, err)
	}
	s.logger.Debug("mcp session established",
		"server", initResult.ServerInfo.Name,
		"version", initResult.ServerInfo.Version)

	listResult, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("%w: tools/list on %q: %v", connectKind(ctx, err), s.command, err)
	}

	s.tools = make(map[string]struct{}, len(listResult.Tools))
	for _, t := range listResult.Tools {
		s.tools[t.Name] = struct{}{}
	}
	return nil
}

// CallTool invokes a named tool and flattens its text content.
func (s *Session) CallTool(ctx context.Context, name string, params map[string]any) (any, error) {
	if s.tools != nil {
		if _, ok := s.tools[name]; !ok {
			return nil, fmt.Errorf("%w: server %q does not expose tool %q", domain.ErrProtocolCall, s.command, name)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = params

	result, err := s.client.CallTool(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tool %q: %v", domain.ErrProtocolTimeout, name, err)
		}
		return nil, fmt.Errorf("%w: tool %q: %v", domain.ErrProtocolCall, name, err)
	}

	text := flattenContent(result)
	if result.IsError {
		return nil, fmt.Errorf("%w: tool %q reported an error: %s", domain.ErrProtocolCall, name, text)
	}
	return text, nil
}

// Disconnect closes the stdio transport and reaps the server process.
// Safe to call more than once and after a failed Connect.
func (s *Session) Disconnect() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

// connectKind maps a handshake failure to the right protocol error kind.
func connectKind(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrProtocolTimeout
	}
	return domain.ErrProtocolConnect
}

func flattenContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
