// Package exec runs external commands for the CLI, chiefly the optional
// type-check that follows a rewrite.
//
//	executor := exec.NewExecutor(&exec.Options{Dir: proj.Root})
//	result, err := executor.RunCheck(ctx, "npx tsc --noEmit", true)
//	if err == nil && !result.Passed() {
//	    fmt.Print(result.Output)
//	}
//
// Commands are split into words without a shell, so pipes and
// redirections in a check command are passed through literally.
// Cancelling the context kills the running command.
package exec
