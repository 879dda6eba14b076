package inference

import "strings"

// UnionSeparator joins the members of a union type.
const UnionSeparator = " | "

// TypeSet is an insertion-ordered set of types keyed by printed text.
type TypeSet struct {
	seen  map[string]struct{}
	texts []string
}

// NewTypeSet creates an empty set.
func NewTypeSet() *TypeSet {
	return &TypeSet{seen: make(map[string]struct{})}
}

// Add inserts every member of t that is not already present.
// It reports whether anything was added.
func (s *TypeSet) Add(t Type) bool {
	added := false
	for _, m := range t.Members() {
		if s.addText(m.Text()) {
			added = true
		}
	}
	return added
}

func (s *TypeSet) addText(text string) bool {
	if text == "" {
		return false
	}
	if _, ok := s.seen[text]; ok {
		return false
	}
	s.seen[text] = struct{}{}
	s.texts = append(s.texts, text)
	return true
}

// Len returns the number of distinct types.
func (s *TypeSet) Len() int {
	return len(s.texts)
}

// Texts returns the member texts in first-seen order.
func (s *TypeSet) Texts() []string {
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

// Union renders the set as a union type, or "" when empty.
func (s *TypeSet) Union() string {
	if len(s.texts) == 1 {
		return s.texts[0]
	}
	parts := make([]string, len(s.texts))
	for i, t := range s.texts {
		parts[i] = parenthesizeFunction(t)
	}
	return strings.Join(parts, UnionSeparator)
}

// ArrayOf renders the set as an array type for rest parameters.
func (s *TypeSet) ArrayOf() string {
	switch len(s.texts) {
	case 0:
		return ""
	case 1:
		if isFunctionType(s.texts[0]) || hasTopLevelUnion(s.texts[0]) {
			return "(" + s.texts[0] + ")[]"
		}
		return s.texts[0] + "[]"
	}
	return "(" + s.Union() + ")[]"
}

func parenthesizeFunction(text string) string {
	if isFunctionType(text) {
		return "(" + text + ")"
	}
	return text
}

// isFunctionType reports whether text has a top-level arrow, as in
// "(a: any) => void". Arrows nested in braces or brackets don't count.
func isFunctionType(text string) bool {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i > 0 && text[i-1] == '=' {
				if depth == 0 {
					return true
				}
				continue
			}
			depth--
		}
	}
	return false
}

func hasTopLevelUnion(text string) bool {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i == 0 || text[i-1] != '=' {
				depth--
			}
		case '|':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
