// Package fieldpath resolves dotted canonical paths into untyped record trees.
//
// Paths use "." as a separator and may carry bracketed literal indices
// ("otros_medicos[0].nombre"). Resolution is a total fold over the parsed
// segments: any broken link yields (nil, false), never a panic. Absence is a
// first-class value throughout the audit pipeline.
package fieldpath

import (
	"strconv"
	"strings"
)

// Segment is one token of a parsed path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Parse tokenizes a dotted path into segments. Parse is total: malformed
// bracket expressions are kept as literal keys rather than rejected, so a
// user-authored path can at worst fail to resolve.
func Parse(path string) []Segment {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	var segments []Segment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}

		open := strings.IndexByte(part, '[')
		if open < 0 {
			segments = append(segments, Segment{Key: part})
			continue
		}

		if open > 0 {
			segments = append(segments, Segment{Key: part[:open]})
		}

		// One or more [n] suffixes on the same part.
		rest := part[open:]
		for strings.HasPrefix(rest, "[") {
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				// Unterminated bracket: treat the remainder as a literal key.
				segments = append(segments, Segment{Key: rest})
				break
			}
			idx, err := strconv.Atoi(rest[1:close])
			if err != nil {
				segments = append(segments, Segment{Key: rest[:close+1]})
			} else {
				segments = append(segments, Segment{Index: idx, IsIndex: true})
			}
			rest = rest[close+1:]
		}
		if rest != "" && !strings.HasPrefix(rest, "[") {
			segments = append(segments, Segment{Key: rest})
		}
	}
	return segments
}

// Resolve walks tree following segments. Returns the value and whether the
// full path resolved. A nil leaf value resolves as (nil, true); a missing
// link resolves as (nil, false).
func Resolve(segments []Segment, tree any) (any, bool) {
	current := tree
	for _, seg := range segments {
		switch v := current.(type) {
		case map[string]any:
			if seg.IsIndex {
				return nil, false
			}
			val, ok := v[seg.Key]
			if !ok {
				return nil, false
			}
			current = val

		case []any:
			if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(v) {
				return nil, false
			}
			current = v[seg.Index]

		default:
			// Scalar or nil while the path continues.
			return nil, false
		}
	}
	return current, true
}

// Get resolves a dotted path string directly against a tree.
func Get(tree any, path string) any {
	val, ok := Resolve(Parse(path), tree)
	if !ok {
		return nil
	}
	return val
}

// Set writes value at a dotted path into root, creating intermediate objects
// as needed. Index segments are not materialized: a path crossing an array
// index into a missing element is dropped silently, matching the total
// resolution contract on the read side.
func Set(root map[string]any, path string, value any) {
	segments := Parse(path)
	if len(segments) == 0 || root == nil {
		return
	}

	current := root
	for i, seg := range segments {
		if seg.IsIndex {
			return
		}
		if i == len(segments)-1 {
			current[seg.Key] = value
			return
		}

		next, ok := current[seg.Key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[seg.Key] = next
		}
		current = next
	}
}

// IsEmpty reports whether v counts as absent for condition evaluation:
// nil, blank string, empty array, or empty object.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// String renders segments back to dotted notation, for diagnostics.
func String(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if seg.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}
