package changeset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/zeebo/xxh3"
)

// ErrConflict is returned when a file changed on disk after it was read.
var ErrConflict = errors.New("file changed on disk since it was read")

// Operation is a file system change that can be checked before it runs.
//
// Validate reports whether Execute would succeed, without side effects.
// force skips conflict checks. Target names the file Execute modifies,
// so a Transaction can restore it.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Target() string
	Description() string
}

// RewriteFileOp replaces the content of an existing file. OriginalHash
// is the xxh3 hash of the content the rewrite was computed from.
type RewriteFileOp struct {
	Path         string
	Display      string // path shown to the user; Path when empty
	Content      []byte
	OriginalHash uint64

	Added, Removed int // line counts for Description
}

// NewRewriteFileOp creates the operation for a rewrite of original.
func NewRewriteFileOp(path string, original, updated []byte) *RewriteFileOp {
	return &RewriteFileOp{
		Path:         path,
		Content:      updated,
		OriginalHash: xxh3.Hash(original),
	}
}

// Rewrite returns the operation that writes c, counting changed lines
// with differ. The conflict check uses the load-time hash when c has one.
func (c Change) Rewrite(differ *Differ) *RewriteFileOp {
	op := NewRewriteFileOp(c.Path, c.Original, c.Updated)
	if c.Hash != 0 {
		op.OriginalHash = c.Hash
	}
	op.Display = c.Display
	op.Added, op.Removed = differ.Stat(c.Original, c.Updated)
	return op
}

func (op *RewriteFileOp) Validate(ctx context.Context, force bool) error {
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}
	current, err := os.ReadFile(op.Path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", op.Path, err)
	}
	if !force && xxh3.Hash(current) != op.OriginalHash {
		return fmt.Errorf("%s: %w", op.Path, ErrConflict)
	}
	return nil
}

// Execute writes the new content, keeping the file's permissions.
func (op *RewriteFileOp) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(op.Path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(op.Path, op.Content, mode)
}

func (op *RewriteFileOp) Target() string { return op.Path }

func (op *RewriteFileOp) Description() string {
	name := op.Display
	if name == "" {
		name = op.Path
	}
	if op.Added == 0 && op.Removed == 0 {
		return fmt.Sprintf("Annotate %s", name)
	}
	return fmt.Sprintf("Annotate %s (+%d -%d)", name, op.Added, op.Removed)
}
