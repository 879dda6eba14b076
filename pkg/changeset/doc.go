// Package changeset reviews rewritten files and writes the accepted ones.
//
// The flow is review, then execute:
//
//	strategy := changeset.NewStrategy(mode, os.Stdout, changeset.DiffOptions{Color: true}, input.Confirm)
//	accepted, err := changeset.Review(changes, strategy)
//	ops := make([]changeset.Operation, len(accepted))
//	for i, c := range accepted {
//	    ops[i] = changeset.NewRewriteFileOp(c.Path, c.Original, c.Updated)
//	}
//	err = changeset.Execute(ctx, ops, changeset.ExecuteOptions{})
//
// Each RewriteFileOp remembers the hash of the content it was computed
// from and refuses to run when the file changed in the meantime
// (ErrConflict), unless forced. Execute validates every operation before
// running any, then runs them in a Transaction that restores the
// previous content of every touched file if one of them fails.
package changeset
