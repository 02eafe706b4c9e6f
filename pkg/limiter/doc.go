// Package limiter translates filter requests into query restrictions.
//
// # Filter values
//
// Every filter value starts with an operator token:
//
//	^   starts with         !=  not equal
//	~   contains            ![  not in list
//	$   ends with           !~  does not contain
//	<   less than           >=  greater or equal
//	>   greater than        <=  less or equal
//	=   equal
//	[   in list
//
// A value without a token is rejected with a *SyntaxError.
//
// # Groups
//
// Filters may nest "and" and "or" groups:
//
//	filters[name]==kirill&filters[or][status]==superactive
//
// A request with groups is built into a tree of Nodes and folded into one
// predicate by a Strategy. Legacy keeps the historical left-to-right
// accumulation; Grouped gives conventional boolean precedence.
//
// Unknown fields are dropped without error.
package limiter
