package limiter

import (
	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// Node is one level of a filter tree: the predicate built from the level's
// own leaves plus one child per nested group, in request order.
type Node struct {
	// Predicate is nil when the level had no usable leaves.
	Predicate query.Predicate
	Children  []Child
}

// Child is a nested group and the key it was given under.
type Child struct {
	Key  string
	Node *Node
}

// Build walks spec and returns its filter tree. Leaves naming fields the
// schema does not know are skipped and reported in dropped. The first leaf
// with an unparseable value aborts the build.
func Build(s schema.Schema, spec *FilterSpec) (node *Node, dropped []string, err error) {
	node, err = buildLevel(s, spec, &dropped)
	if err != nil {
		return nil, nil, err
	}
	return node, dropped, nil
}

func buildLevel(s schema.Schema, spec *FilterSpec, dropped *[]string) (*Node, error) {
	node := &Node{}
	var apply, negate []query.Lookup

	if spec != nil {
		for _, e := range spec.Entries {
			if e.IsGroup() {
				child, err := buildLevel(s, e.Group, dropped)
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, Child{Key: e.Key, Node: child})
				continue
			}

			if !s.HasField(e.Key) {
				*dropped = append(*dropped, e.Key)
				continue
			}
			for _, v := range e.Leaf {
				tok, err := ParseToken(v)
				if err != nil {
					return nil, NewSyntaxError(e.Key, v)
				}
				if tok.Method == Exclude {
					negate = append(negate, tok.Lookup(e.Key))
				} else {
					apply = append(apply, tok.Lookup(e.Key))
				}
			}
		}
	}

	node.Predicate = levelPredicate(apply, negate)
	return node, nil
}

// levelPredicate is "apply AND NOT(negate)", reduced to whichever side is
// present, or nil when both are empty.
func levelPredicate(apply, negate []query.Lookup) query.Predicate {
	switch {
	case len(apply) > 0 && len(negate) > 0:
		return query.And{query.Match(apply), query.Not{Inner: query.Match(negate)}}
	case len(apply) > 0:
		return query.Match(apply)
	case len(negate) > 0:
		return query.Not{Inner: query.Match(negate)}
	default:
		return nil
	}
}
