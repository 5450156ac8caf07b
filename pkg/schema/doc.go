// Package schema turns a raw, YAML-sourced mapping into a validated
// domain.Specification.
//
// Parsing runs in three phases: structural decoding, parent-reference
// resolution (a depth-first deep-merge with cycle detection), and
// cross-reference validation. Cross-reference checks are deliberately
// deferred until references are merged, because a child spec may lean on
// nodes or LLM configs declared only in a parent.
//
// The package owns no file I/O: callers inject a Resolver that maps a
// reference path to its raw mapping.
package schema
