// Package condition compiles the small routing-expression sublanguage used
// on workflow edges into callable predicates over the workflow state.
//
// Supported forms:
//
//	state.get('score', 0) >= 4
//	state.get('done') == 'yes' and state.get('retries') < 3
//	state.get('approved')
//	true / false
//	review_node            (a literal target-node name)
//
// Expressions are parsed into an explicit tagged AST and evaluated by
// structural recursion; there is no host-language eval. `and` binds tighter
// than `or`, both grouping left to right.
package condition
