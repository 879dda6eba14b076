package changeset

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ExecuteOptions configures Execute.
type ExecuteOptions struct {
	DryRun bool
	Force  bool
	Writer io.Writer // progress lines; os.Stdout when nil
}

// Execute validates every operation, then runs them in one transaction.
// A failure rolls back the operations that already ran. In a dry run
// the operations are only listed.
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	for _, op := range ops {
		if err := op.Validate(ctx, opts.Force); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	if opts.DryRun {
		for _, op := range ops {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", op.Description())
		}
		return nil
	}

	tx := NewTransaction()
	for _, op := range ops {
		if err := tx.Do(ctx, op); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("execution failed: %w (rollback: %v)", err, rbErr)
			}
			return fmt.Errorf("execution failed, changes rolled back: %w", err)
		}
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
	}
	return tx.Commit()
}
