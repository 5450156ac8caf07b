// Package plait is a YAML-defined agentic workflow engine: declare a
// directed graph of LLM calls, tool invocations, and judge/branch nodes,
// compile it into an executable state machine, and run it against user
// prompts.
//
// The core contract is small: pkg/schema parses a raw mapping into a
// validated Specification, New compiles it into a graph, and Invoke
// threads a copy-on-write WorkflowState through each node until the END
// sentinel. External capabilities (models, tools, protocol servers) are
// injected through the interfaces in pkg/ports; ready-made implementations
// live under pkg/adapters.
//
//	spec, err := specfile.Load("workflow.yaml")
//	eng, err := plait.New(spec, plait.WithLLM(myClient))
//	state, err := eng.Invoke(ctx, "summarize this", "")
//	fmt.Println(eng.Output(state))
package plait
