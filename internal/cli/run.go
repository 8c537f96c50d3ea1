package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlframe/internal/session"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <job-file>",
		Short: "Execute a query job against a SQLite database",
		Long: `Compile a YAML query job and execute it against a SQLite database.

The base table's schema is introspected from the database; any schema
declared in the job file is ignored.

Example:
  sqlframe run --db ./data.db ./job.yaml
  sqlframe run --db ./data.db --format json ./job.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runJob(opts *RunOptions, jobPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	job, err := LoadJob(jobPath)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = out.Error(code, err.Error())
		return WrapExitError(ExitCommandError, "failed to load job", err)
	}

	slog.Info("opening database", "path", opts.Database)
	sess, err := session.Open(opts.Database)
	if err != nil {
		_ = out.Error(ErrCodeOpenDatabase, err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	t, err := sess.Table(ctx, job.Table.Name)
	if err != nil {
		_ = out.Error(ErrCodePlanFailed, err.Error())
		return WrapExitError(ExitCommandError, "failed to open table", err)
	}
	t, err = applyJob(job, t)
	if err != nil {
		code := ErrCodePlanFailed
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = out.Error(code, err.Error())
		return WrapExitError(ExitFailure, "failed to plan query", err)
	}

	slog.Debug("submitting query", "table", job.Table.Name)
	result, err := sess.Submit(ctx, t)
	if err != nil {
		_ = out.Error(ErrCodeQueryFailed, err.Error())
		return WrapExitError(ExitFailure, "query failed", err)
	}
	slog.Info("query complete", "job_id", result.JobID, "rows", len(result.Rows))

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"job_id":  result.JobID,
			"sql":     result.SQL,
			"columns": result.Columns,
			"rows":    result.Rows,
		})
	}
	return out.Success(formatRows(result))
}

// formatRows renders a result as aligned text: header row then one line per
// row, tab separated.
func formatRows(r *session.Result) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		sb.WriteString("\n")
		parts := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				parts[i] = "NULL"
				continue
			}
			if b, ok := v.([]byte); ok {
				parts[i] = string(b)
				continue
			}
			parts[i] = fmt.Sprint(v)
		}
		sb.WriteString(strings.Join(parts, "\t"))
	}
	return sb.String()
}
