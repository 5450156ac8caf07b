package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/plait/internal/presentation/tui"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
)

// builtinTools are the in-process callables every CLI run can reference.
func builtinTools(opts RunOptions) ports.ToolMap {
	return ports.ToolMap{
		"ask_user":     askUser(opts),
		"word_count":   wordCount,
		"current_time": currentTime,
	}
}

// askUser prompts on the terminal and feeds the answer back into state.
// Typing quit or exit terminates the workflow gracefully.
func askUser(opts RunOptions) ports.ToolFunc {
	return func(ctx context.Context, state *domain.WorkflowState) (any, error) {
		question := state.Output
		if question == "" {
			question = "Your input:"
		}

		prompter := tui.NewPrompter()
		answer, err := prompter.Ask(question)
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("stdin closed: %w", domain.ErrUserExit)
			}
			return nil, fmt.Errorf("read input: %w", err)
		}

		switch strings.ToLower(answer) {
		case "quit", "exit":
			return nil, domain.ErrUserExit
		}
		return map[string]any{"input": answer, "output": answer}, nil
	}
}

func wordCount(ctx context.Context, state *domain.WorkflowState) (any, error) {
	subject := state.Output
	if subject == "" {
		subject = state.Input
	}
	n := len(strings.Fields(subject))
	return map[string]any{
		"word_count": n,
		"output":     fmt.Sprintf("Word count: %d", n),
	}, nil
}

func currentTime(ctx context.Context, state *domain.WorkflowState) (any, error) {
	return time.Now().Format(time.RFC3339), nil
}
