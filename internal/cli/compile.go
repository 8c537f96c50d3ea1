package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlframe/internal/core"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <job-file>",
		Short: "Render the SQL for a query job",
		Long: `Compile a YAML query job to its SQL statement without executing it.

The job file must declare the base table's schema, since no database is
consulted.

Example:
  sqlframe compile ./job.yaml
  sqlframe compile --format json ./job.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}
	return cmd
}

func runCompile(opts *CompileOptions, jobPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	query, err := compileJob(jobPath)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = out.Error(code, err.Error())
		return WrapExitError(ExitCommandError, "compile failed", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]string{"sql": query})
	}
	return out.Success(query)
}

// compileJob loads a job, plans it over its declared schema, and renders
// the final SQL.
func compileJob(jobPath string) (string, error) {
	job, err := LoadJob(jobPath)
	if err != nil {
		return "", err
	}
	table, err := declaredTable(job.Table)
	if err != nil {
		return "", err
	}
	t, err := core.FromTable(nil, table)
	if err != nil {
		return "", err
	}
	t, err = applyJob(job, t)
	if err != nil {
		return "", err
	}
	return t.ToSQL()
}
