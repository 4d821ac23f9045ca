package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/adapter"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// checkConcurrency bounds the number of tables inspected at once.
const checkConcurrency = 4

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var (
		format string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare entity descriptors with the database",
		Long: `Check that every entity's table exists and has a column for each
declared field. Columns the descriptor does not declare are reported but
are not an error.

With --watch the check is repeated whenever a descriptor file in the
schema directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			err = runCheck(cmd.Context(), cmd.OutOrStdout(), cmdCtx.DB, cmdCtx.Descriptors, format)
			if !watch {
				return err
			}
			if err != nil {
				cmdCtx.Logger.Warn("check failed", "error", err)
			}
			return watchSchema(cmd.Context(), cmdCtx, func(descs []*schema.Descriptor) error {
				return runCheck(cmd.Context(), cmd.OutOrStdout(), cmdCtx.DB, descs, format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format (text|json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run the check when schema files change")
	return cmd
}

func runCheck(ctx context.Context, w io.Writer, db adapter.Adapter, descs []*schema.Descriptor, format string) error {
	results := checkTables(ctx, db, descs)
	if err := renderCheck(w, results, format); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("schema check failed: %d of %d entities do not match", failed, len(results))
	}
	return nil
}

// checkResult is the outcome for one entity.
type checkResult struct {
	Type    string   `json:"type"`
	Table   string   `json:"table"`
	Rows    int64    `json:"rows"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// OK reports whether the table exists with every declared field.
func (r checkResult) OK() bool {
	return r.Error == "" && len(r.Missing) == 0
}

// checkTables inspects every descriptor's table. Results keep the order of
// descs.
func checkTables(ctx context.Context, db adapter.Adapter, descs []*schema.Descriptor) []checkResult {
	results := make([]checkResult, len(descs))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(checkConcurrency)
	for i, d := range descs {
		i, d := i, d
		eg.Go(func() error {
			results[i] = checkTable(egctx, db, d)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func checkTable(ctx context.Context, db adapter.Adapter, d *schema.Descriptor) checkResult {
	r := checkResult{Type: d.TypeName(), Table: d.Table()}

	meta, err := db.GetTableMetadata(ctx, d.Table())
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Rows = meta.RowCount

	for _, f := range d.FieldNames() {
		if !meta.HasColumn(f) {
			r.Missing = append(r.Missing, f)
		}
	}
	for _, c := range meta.Columns {
		if !d.HasField(c.Name) {
			r.Extra = append(r.Extra, c.Name)
		}
	}
	return r
}

func renderCheck(w io.Writer, results []checkResult, format string) error {
	if format == FormatJSON {
		return renderJSON(w, results)
	}

	t := newTable(w, "Type", "Table", "Rows", "Status", "Missing", "Extra")
	for _, r := range results {
		status := "ok"
		switch {
		case r.Error != "":
			status = "error: " + r.Error
		case len(r.Missing) > 0:
			status = "missing columns"
		}
		t.AppendRow([]any{r.Type, r.Table, r.Rows, status, strings.Join(r.Missing, ", "), strings.Join(r.Extra, ", ")})
	}
	t.Render()
	return nil
}
