package source

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/simonhull/firebird-suite/wren/pkg/inference"
)

// ErrAnnotationUnsupported is returned when asked to annotate a
// parameter in a file that cannot carry type annotations.
var ErrAnnotationUnsupported = fmt.Errorf("type annotations are not supported in this file: %w", inference.ErrNotAnnotatable)

// edit replaces Content[start:end] with text.
type edit struct {
	start, end uint32
	text       string
}

// FileChange is the rewritten content of an edited file.
type FileChange struct {
	Path     string
	Original []byte
	Updated  []byte
	Hash     uint64 // xxh3 of Original
}

// SetParameterType records an edit that gives the parameter at index the
// declared type text, replacing any existing annotation. Setting the
// same parameter again replaces the earlier edit.
func (m *Model) SetParameterType(fn inference.Function, index int, typeText string) error {
	target, err := m.function(fn)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(target.slots) {
		return fmt.Errorf("%s has no parameter %d", target.name, index)
	}

	f := target.file
	if !f.Lang.Annotatable() {
		return fmt.Errorf("%s in %s: %w", target.name, f.Path, ErrAnnotationUnsupported)
	}

	e, err := annotationEdit(target.slots[index], typeText)
	if err != nil {
		return fmt.Errorf("%s parameter %d: %w", target.name, index, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[target.slots[index].node.Start] = e
	return nil
}

func annotationEdit(slot paramSlot, typeText string) (edit, error) {
	annotation := ": " + typeText
	p := slot.node

	if ann := p.Child("type"); ann != nil {
		return edit{start: ann.Start, end: ann.End, text: annotation}, nil
	}

	switch p.Kind {
	case "required_parameter", "optional_parameter":
		at := slot.pattern.End
		if q := p.ChildOfKind("?"); q != nil {
			at = q.End
		}
		return edit{start: at, end: at, text: annotation}, nil
	case "identifier", "object_pattern", "array_pattern", "rest_pattern":
		return edit{start: p.End, end: p.End, text: annotation}, nil
	case "assignment_pattern":
		at := slot.pattern.End
		return edit{start: at, end: at, text: annotation}, nil
	}
	return edit{}, errors.New("unsupported parameter shape " + p.Kind)
}

// Changes returns the rewritten content of every file with pending
// edits, sorted by path. Files whose edits leave the content unchanged
// are omitted.
func (m *Model) Changes() []FileChange {
	var out []FileChange
	for _, f := range m.order {
		updated, ok := f.apply()
		if !ok {
			continue
		}
		out = append(out, FileChange{
			Path:     f.Path,
			Original: f.Content,
			Updated:  updated,
			Hash:     f.Hash,
		})
	}
	return out
}

func (f *File) apply() ([]byte, bool) {
	f.mu.Lock()
	edits := make([]edit, 0, len(f.edits))
	for _, e := range f.edits {
		edits = append(edits, e)
	}
	f.mu.Unlock()

	if len(edits) == 0 {
		return nil, false
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b bytes.Buffer
	b.Grow(len(f.Content) + 64*len(edits))
	last := uint32(0)
	for _, e := range edits {
		b.Write(f.Content[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.Write(f.Content[last:])

	updated := b.Bytes()
	if bytes.Equal(updated, f.Content) {
		return nil, false
	}
	return updated, true
}
