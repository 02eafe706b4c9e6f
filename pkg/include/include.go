// Package include validates relationship chains requested for eager loading.
//
// A chain such as "articles.comments" is walked against the schema one
// segment at a time and cut short at the first segment that is not a
// relation. What survives is glued with query.LookupSep into a prefetch
// path ("articles__comments") the storage layer understands.
package include

import (
	"strings"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// DefaultDelimiter separates segments in a requested chain.
const DefaultDelimiter = "."

// Options controls BuildIncludeSet.
type Options struct {
	// Delimiter splits requested chains. Defaults to DefaultDelimiter.
	Delimiter string

	// Dedup drops repeated paths, keeping the first occurrence.
	Dedup bool
}

// ResolveChain returns the longest prefix of chain whose segments are all
// relations, starting at root. It never fails: an invalid first segment
// yields an empty slice.
func ResolveChain(root schema.Schema, chain, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	segments := []string{}
	current := root
	for _, segment := range strings.Split(chain, delimiter) {
		if current == nil {
			break
		}
		related, ok := current.RelatedModel(segment)
		if !ok {
			break
		}
		segments = append(segments, segment)
		current = related
	}
	return segments
}

// BuildIncludeSet resolves every chain against model and returns the glued
// prefetch paths in request order. Chains that resolve to nothing are
// left out.
func BuildIncludeSet(model schema.Schema, chains []string, opts Options) []string {
	paths := make([]string, 0, len(chains))
	var seen map[string]struct{}
	if opts.Dedup {
		seen = make(map[string]struct{}, len(chains))
	}

	for _, chain := range chains {
		segments := ResolveChain(model, chain, opts.Delimiter)
		if len(segments) == 0 {
			continue
		}
		path := strings.Join(segments, query.LookupSep)
		if seen != nil {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
		}
		paths = append(paths, path)
	}
	return paths
}
