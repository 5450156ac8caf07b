package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/internal/presentation/tui"
	"github.com/aretw0/plait/pkg/domain"
)

// RunSession executes one workflow invocation with CLI conventions:
// banner and markdown rendering on a terminal, plain output otherwise.
func RunSession(opts RunOptions) error {
	level := logging.ParseLevel(opts.LogLevel)
	if opts.Debug {
		level = logging.ParseLevel("debug")
	}
	logger := logging.New(level)

	engine, _, err := NewEngine(opts, logger)
	if err != nil {
		return err
	}

	interactive := tui.IsInteractive() && !opts.Plain
	if interactive {
		tui.PrintBanner()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state, err := engine.Invoke(ctx, opts.Input, opts.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrUserExit) {
			fmt.Println("Bye!")
			return nil
		}
		return fmt.Errorf("workflow failed: %w", err)
	}

	output := engine.Output(state)
	if interactive {
		render := tui.NewRenderer()
		if rendered, rerr := render(output); rerr == nil {
			fmt.Print(rendered)
			return nil
		}
	}
	fmt.Println(output)
	return nil
}
