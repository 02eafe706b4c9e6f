package limiter

import (
	"strings"

	"mercator-hq/magicbox/pkg/query"
)

// Strategy selects how a filter tree is folded into one predicate.
type Strategy string

const (
	// Legacy threads a single accumulator through the whole tree. Each
	// group is combined with everything accumulated before it, so the
	// result depends on the order in which group keys arrived:
	//
	//	{q: A, or: {q: B, and: {q: C}}}  ->  ((A OR B) AND C)
	Legacy Strategy = "legacy"

	// Grouped reduces every group on its own, bottom-up, and then joins it
	// to its parent:
	//
	//	{q: A, or: {q: B, and: {q: C}}}  ->  (A OR (B AND C))
	Grouped Strategy = "grouped"
)

// ParseStrategy resolves a strategy name. The empty string is Legacy.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", Legacy:
		return Legacy, nil
	case Grouped:
		return Grouped, nil
	default:
		return "", &StrategyError{Name: name}
	}
}

// Linearize folds the tree rooted at root into a single predicate. Only
// children keyed "and" or "or" take part; other nested keys are ignored.
// The result is nil when no level produced a predicate.
func Linearize(root *Node, strategy Strategy) query.Predicate {
	if root == nil {
		return nil
	}
	if strategy == Grouped {
		return reduce(root)
	}
	return accumulate(nil, root, query.AND)
}

func accumulate(acc query.Predicate, node *Node, conn query.Connector) query.Predicate {
	acc = query.Combine(acc, node.Predicate, conn)
	for _, c := range node.Children {
		if childConn, ok := groupConnector(c.Key); ok {
			acc = accumulate(acc, c.Node, childConn)
		}
	}
	return acc
}

func reduce(node *Node) query.Predicate {
	result := node.Predicate
	for _, c := range node.Children {
		if conn, ok := groupConnector(c.Key); ok {
			result = query.Combine(result, reduce(c.Node), conn)
		}
	}
	return result
}

func groupConnector(key string) (query.Connector, bool) {
	switch key {
	case KeyOr:
		return query.OR, true
	case KeyAnd:
		return query.AND, true
	default:
		return "", false
	}
}
