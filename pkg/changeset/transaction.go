package changeset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Transaction runs operations so that either all of them take effect or
// the files they touched are put back as they were.
type Transaction struct {
	saved     []snapshot
	committed bool
	done      bool
}

type snapshot struct {
	path    string
	content []byte
	mode    fs.FileMode
	existed bool
}

// NewTransaction creates an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Do records the current state of op's target and executes op. On error
// the caller should Rollback.
func (t *Transaction) Do(ctx context.Context, op Operation) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}

	snap := snapshot{path: op.Target()}
	info, err := os.Stat(snap.path)
	switch {
	case err == nil:
		content, err := os.ReadFile(snap.path)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", snap.path, err)
		}
		snap.content, snap.mode, snap.existed = content, info.Mode().Perm(), true
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to save %s: %w", snap.path, err)
	}
	t.saved = append(t.saved, snap)

	return op.Execute(ctx)
}

// Commit ends the transaction, keeping every change.
func (t *Transaction) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done, t.committed = true, true
	t.saved = nil
	return nil
}

// Rollback restores every file touched so far, newest first. It does
// nothing after Commit, so it can be deferred.
func (t *Transaction) Rollback() error {
	if t.committed || t.done {
		return nil
	}
	t.done = true

	var errs []error
	for i := len(t.saved) - 1; i >= 0; i-- {
		s := t.saved[i]
		var err error
		if s.existed {
			err = os.WriteFile(s.path, s.content, s.mode)
		} else if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = rmErr
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", s.path, err))
		}
	}
	return errors.Join(errs...)
}
