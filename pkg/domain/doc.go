// Package domain contains the core entities of the Plait workflow engine:
// the validated Specification (LLMs, functions, nodes, edges), the
// WorkflowState threaded through node executions, and the shared error
// and event vocabulary.
//
// This package has no dependencies on adapters or the runtime. Everything
// here is plain data; behavior lives in the compiler and runtime packages.
package domain
