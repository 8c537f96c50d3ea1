package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <job-file>",
		Short: "Check a query job file against the schema",
		Long: `Validate a YAML query job against the embedded job schema and verify
that every operator it names exists.

Example:
  sqlframe validate ./job.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *ValidateOptions, jobPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	job, err := LoadJob(jobPath)
	if err == nil {
		err = checkOperators(job)
	}
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = out.Error(code, err.Error())
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"table":  job.Table.Name,
			"derive": len(job.Derive),
			"filter": len(job.Filter),
		})
	}
	return out.Success(fmt.Sprintf("job valid: table %q, %d derived columns, %d filters",
		job.Table.Name, len(job.Derive), len(job.Filter)))
}

// checkOperators verifies every operator name resolves in the registries.
func checkOperators(job *Job) error {
	for _, d := range job.Derive {
		if _, ok := unaryOps[d.Op]; ok {
			continue
		}
		if _, ok := binaryOps[d.Op]; ok {
			continue
		}
		return &LoadError{
			Code:    ErrCodeBadOp,
			Message: fmt.Sprintf("derive %q: unknown operator %q", d.ID, d.Op),
		}
	}
	if job.Aggregate != nil {
		if _, ok := aggregateOps[job.Aggregate.Op]; !ok {
			return &LoadError{
				Code:    ErrCodeBadOp,
				Message: fmt.Sprintf("unknown aggregate operator %q", job.Aggregate.Op),
			}
		}
	}
	return nil
}
