package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/leapstack-labs/leaprecord/pkg/record"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var (
		format string
		with   []string
	)

	cmd := &cobra.Command{
		Use:   "show <type> <id>",
		Short: "Print one entity and, optionally, its relations",
		Long: `Load an entity by primary key and print it.

Relations named with --with are resolved and printed after it.`,
		Example: `  # Print post 1
  leaprecord show Post 1

  # Print post 1 with its author and tags
  leaprecord show Post 1 --with author,tags`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return runShow(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Registry, args[0], args[1], with, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format (text|json)")
	cmd.Flags().StringSliceVarP(&with, "with", "w", nil, "Relations to resolve and print")
	return cmd
}

func runShow(ctx context.Context, w io.Writer, reg *record.Registry, typeName, rawID string, with []string, format string) error {
	m, err := reg.Model(typeName)
	if err != nil {
		return err
	}
	id, err := parseKey(m.Descriptor(), rawID)
	if err != nil {
		return err
	}
	e, err := m.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load %s #%s: %w", typeName, rawID, err)
	}

	related := make(map[string]record.Value, len(with))
	for _, name := range with {
		v, err := e.Get(ctx, name)
		if err != nil {
			return err
		}
		related[name] = v
	}

	if format == FormatJSON {
		return renderJSON(w, entityJSON(e, with, related))
	}

	_, _ = fmt.Fprint(w, e.String())
	for _, name := range with {
		v := related[name]
		if one, ok := v.Entity(); ok {
			_, _ = fmt.Fprintf(w, "\n%s:\n%s", name, one.String())
			continue
		}
		if many, ok := v.Entities(); ok {
			_, _ = fmt.Fprintf(w, "\n%s: %d\n", name, len(many))
			for _, r := range many {
				_, _ = fmt.Fprint(w, r.String())
			}
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s: (none)\n", name)
	}
	return nil
}

// parseKey converts a command-line id to the primary key's field type.
func parseKey(d *schema.Descriptor, raw string) (any, error) {
	f, _ := d.Field(d.PrimaryKey())
	if f.Type != schema.TypeInt {
		return raw, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: expected an integer", d.PrimaryKey(), raw)
	}
	return id, nil
}

func entityJSON(e *record.Entity, with []string, related map[string]record.Value) map[string]any {
	out := map[string]any{
		"type":       e.Model().Name(),
		"attributes": e.Attributes(),
	}
	if len(with) == 0 {
		return out
	}
	rels := make(map[string]any, len(with))
	for _, name := range with {
		v := related[name]
		if one, ok := v.Entity(); ok {
			rels[name] = one.Attributes()
		} else if many, ok := v.Entities(); ok {
			list := make([]map[string]any, len(many))
			for i, r := range many {
				list[i] = r.Attributes()
			}
			rels[name] = list
		} else {
			rels[name] = v.Any()
		}
	}
	out["relations"] = rels
	return out
}
