package cli

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/aretw0/plait"
	"github.com/aretw0/plait/pkg/adapters/llm"
	mcpadapter "github.com/aretw0/plait/pkg/adapters/mcp"
	"github.com/aretw0/plait/pkg/adapters/memory"
	"github.com/aretw0/plait/pkg/adapters/process"
	redisadapter "github.com/aretw0/plait/pkg/adapters/redis"
	"github.com/aretw0/plait/pkg/adapters/specfile"
	"github.com/aretw0/plait/pkg/persistence/middleware"
	"github.com/aretw0/plait/pkg/ports"
	"github.com/aretw0/plait/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// NewEngine loads the spec and assembles an engine with standard CLI
// conventions: provider-backed LLMs, builtin tools, the stdio protocol
// dialer, and a state store selected by the flags. The returned session
// manager guards concurrent runs of one session; with Redis configured
// the guard holds across replicas.
func NewEngine(opts RunOptions, logger *slog.Logger) (*plait.Engine, *session.Manager, error) {
	spec, err := specfile.Load(opts.SpecPath, specfile.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("load workflow: %w", err)
	}

	store, locker := selectStore(opts)
	if len(opts.MaskPatterns) > 0 {
		for _, p := range opts.MaskPatterns {
			if _, err := regexp.Compile(p); err != nil {
				return nil, nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
			}
		}
		store = middleware.Chain(store, middleware.NewPIIMiddleware(opts.MaskPatterns))
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	sessions := session.NewManager(store, sessionOpts...)

	engineOpts := []plait.Option{
		plait.WithLogger(logger),
		plait.WithLLMFactory(llm.NewFactory()),
		plait.WithTools(builtinTools(opts)),
		plait.WithProtocolDialer(mcpadapter.NewDialer(mcpadapter.WithLogger(logger))),
		plait.WithStore(store),
	}
	if opts.CodeAgentCmd != "" {
		engineOpts = append(engineOpts, plait.WithCodeAgent(process.NewAgent(opts.CodeAgentCmd)))
	}
	if opts.Debug {
		engineOpts = append(engineOpts, plait.WithLifecycleHooks(debugHooks(logger)))
	}

	engine, err := plait.New(spec, engineOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize engine: %w", err)
	}
	return engine, sessions, nil
}

func selectStore(opts RunOptions) (ports.StateStore, ports.DistributedLocker) {
	if opts.RedisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: opts.RedisAddr})
		return redisadapter.NewFromClient(client), redisadapter.NewLocker(client, "plait:")
	}
	return memory.NewStore(), nil
}
