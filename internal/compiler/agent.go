package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/plait/internal/runtime"
	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
	"github.com/aretw0/plait/pkg/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mitchellh/mapstructure"
)

// agentConfig is the typed view of an agent node's config bag.
type agentConfig struct {
	Prompt          string         `mapstructure:"prompt"`
	Instructions    string         `mapstructure:"instructions"`
	OutputKey       string         `mapstructure:"output_key"`
	Format          string         `mapstructure:"format"`
	Schema          map[string]any `mapstructure:"schema"`
	JSONSchema      map[string]any `mapstructure:"json_schema"`
	CountIterations bool           `mapstructure:"count_iterations"`
}

func decodeConfig(bag map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(bag)
}

// agentFactory builds the node function for an agent: render the prompt
// template against the current state, invoke the LLM capability, and write
// the response into the state copy.
func agentFactory(spec *domain.Specification, node domain.Node, caps *Capabilities) (runtime.NodeFunc, error) {
	var cfg agentConfig
	if err := decodeConfig(node.Config, &cfg); err != nil {
		return nil, fmt.Errorf("node %q: decode agent config: %w", node.ID, err)
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "{input}"
	}
	if cfg.Format != "" && cfg.Format != "json" && cfg.Format != "yaml" {
		return nil, fmt.Errorf("node %q: unsupported output format %q", node.ID, cfg.Format)
	}

	fieldSchema, err := buildFieldSchema(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", node.ID, err)
	}
	jsonSchema, err := buildJSONSchema(cfg.JSONSchema)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", node.ID, err)
	}

	llmCfg := spec.LLMs[node.Ref]
	client, err := resolveLLM(caps, llmCfg)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", node.ID, err)
	}

	return func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		next := state.Clone()
		if cfg.CountIterations {
			next.IterationCount++
		}

		prompt := renderTemplate(cfg.Prompt, state)
		system := renderTemplate(cfg.Instructions, state)

		emitLLMCall(ctx, caps, node.ID, llmCfg.Model, state.SessionID)
		resp, err := client.Generate(ctx, ports.GenerateRequest{
			Prompt:       prompt,
			SystemPrompt: system,
			SessionID:    state.SessionID,
		})
		emitLLMReturn(ctx, caps, node.ID, llmCfg.Model, state.SessionID, err != nil)
		if err != nil {
			// Recoverable: a downstream node or the caller may still want
			// a usable result.
			next.Output = "Error: " + err.Error()
			next.ErrorContext = err.Error()
			return next, nil
		}

		next.ErrorContext = ""
		if cfg.OutputKey != "" {
			next.Set(cfg.OutputKey, resp)
		} else {
			next.Output = resp
		}

		if cfg.Format != "" {
			applyFormat(next, cfg.Format, resp, fieldSchema, jsonSchema)
		}
		return next, nil
	}, nil
}

// applyFormat parses and validates a formatted response. Failures are
// recorded in state, never raised: format trouble is recoverable.
func applyFormat(state *domain.WorkflowState, format, raw string, fieldSchema schema.FieldSchema, jsonSchema *openapi3.Schema) {
	parsed, err := parseStructured(format, raw)
	if err != nil {
		state.Set(domain.KeyFormatStatus, "invalid")
		return
	}
	state.Set(domain.KeyFormatStatus, "valid")
	state.Set(domain.KeyStructuredOutput, parsed)

	if fieldSchema != nil {
		if err := fieldSchema.Validate(parsed); err != nil {
			state.Set(domain.KeyValidationStatus, "error")
			return
		}
		state.Set(domain.KeyValidationStatus, "valid")
	}
	if jsonSchema != nil {
		if err := jsonSchema.VisitJSON(normalizeForVisit(parsed)); err != nil {
			state.Set(domain.KeyValidationStatus, "error")
			return
		}
		state.Set(domain.KeyValidationStatus, "valid")
	}
}

func buildFieldSchema(raw map[string]any) (schema.FieldSchema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return schema.ParseFieldSchema(raw)
}

// buildJSONSchema compiles a declared JSON Schema (config.json_schema)
// for structured-output validation.
func buildJSONSchema(raw map[string]any) (*openapi3.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode json_schema: %w", err)
	}
	var s openapi3.Schema
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("invalid json_schema: %w", err)
	}
	return &s, nil
}

// normalizeForVisit round-trips yaml-decoded values through interface
// maps so the schema visitor sees JSON-shaped data.
func normalizeForVisit(m map[string]any) any {
	data, err := json.Marshal(m)
	if err != nil {
		return m
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return m
	}
	return out
}

func resolveLLM(caps *Capabilities, cfg domain.LLMConfig) (ports.LLMClient, error) {
	if caps.LLM == nil {
		return nil, fmt.Errorf("no LLM capability configured")
	}
	return caps.LLM(cfg)
}

func emitLLMCall(ctx context.Context, caps *Capabilities, nodeID, model, sessionID string) {
	if caps.Hooks.OnLLMCall == nil {
		return
	}
	caps.Hooks.OnLLMCall(ctx, &domain.LLMEvent{
		Timestamp: time.Now(),
		Type:      domain.EventLLMCall,
		SessionID: sessionID,
		NodeID:    nodeID,
		Model:     model,
	})
}

func emitLLMReturn(ctx context.Context, caps *Capabilities, nodeID, model, sessionID string, isErr bool) {
	if caps.Hooks.OnLLMReturn == nil {
		return
	}
	caps.Hooks.OnLLMReturn(ctx, &domain.LLMEvent{
		Timestamp: time.Now(),
		Type:      domain.EventLLMReturn,
		SessionID: sessionID,
		NodeID:    nodeID,
		Model:     model,
		IsError:   isErr,
	})
}
