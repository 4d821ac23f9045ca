package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema [type]",
		Short: "List entity descriptors",
		Long: `List the entity descriptors found in the schema directory.

With a type name, show that entity's fields and relations.`,
		Example: `  # List every entity
  leaprecord schema

  # Show the fields and relations of Post as JSON
  leaprecord schema Post --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			env := GetEnv(cmd.Context())
			if env.Cfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			descs, err := loadDescriptors(env.Cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(args) == 0 {
				return listDescriptors(w, descs, format)
			}
			for _, d := range descs {
				if d.TypeName() == args[0] {
					return describeDescriptor(w, d, format)
				}
			}
			return fmt.Errorf("entity %q not found in %s", args[0], env.Cfg.SchemaDir)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format (text|json)")
	return cmd
}

type descriptorSummary struct {
	Type        string `json:"type"`
	Table       string `json:"table"`
	PrimaryKey  string `json:"primary_key"`
	KeyStrategy string `json:"key_strategy"`
	Fields      int    `json:"fields"`
	Relations   int    `json:"relations"`
}

func listDescriptors(w io.Writer, descs []*schema.Descriptor, format string) error {
	rows := make([]descriptorSummary, len(descs))
	for i, d := range descs {
		rows[i] = descriptorSummary{
			Type:        d.TypeName(),
			Table:       d.Table(),
			PrimaryKey:  d.PrimaryKey(),
			KeyStrategy: string(d.KeyStrategy()),
			Fields:      len(d.Fields()),
			Relations:   len(d.Relations()),
		}
	}
	if format == FormatJSON {
		return renderJSON(w, rows)
	}

	t := newTable(w, "Type", "Table", "Primary Key", "Key Strategy", "Fields", "Relations")
	for _, r := range rows {
		t.AppendRow([]any{r.Type, r.Table, r.PrimaryKey, r.KeyStrategy, r.Fields, r.Relations})
	}
	t.Render()
	return nil
}

type fieldDetail struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	Serialized bool   `json:"serialized"`
}

type relationDetail struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Key       string `json:"key,omitempty"`
	OtherKey  string `json:"other_key,omitempty"`
	JoinTable string `json:"join_table,omitempty"`
}

type descriptorDetail struct {
	descriptorSummary
	FieldList    []fieldDetail    `json:"field_list"`
	RelationList []relationDetail `json:"relation_list"`
}

func describeDescriptor(w io.Writer, d *schema.Descriptor, format string) error {
	detail := descriptorDetail{
		descriptorSummary: descriptorSummary{
			Type:        d.TypeName(),
			Table:       d.Table(),
			PrimaryKey:  d.PrimaryKey(),
			KeyStrategy: string(d.KeyStrategy()),
			Fields:      len(d.Fields()),
			Relations:   len(d.Relations()),
		},
		FieldList:    []fieldDetail{},
		RelationList: []relationDetail{},
	}
	for _, f := range d.Fields() {
		detail.FieldList = append(detail.FieldList, fieldDetail{
			Name: f.Name, Type: string(f.Type), Nullable: f.Nullable, Serialized: f.Serialized,
		})
	}
	for _, r := range d.Relations() {
		detail.RelationList = append(detail.RelationList, relationDetail{
			Name: r.Name, Kind: string(r.Kind), Type: r.Type,
			Key: r.Key, OtherKey: r.OtherKey, JoinTable: r.JoinTable,
		})
	}
	if format == FormatJSON {
		return renderJSON(w, detail)
	}

	_, _ = fmt.Fprintf(w, "%s (table %s, primary key %s, %s keys)\n\n",
		d.TypeName(), d.Table(), d.PrimaryKey(), d.KeyStrategy())

	t := newTable(w, "Field", "Type", "Nullable", "Serialized")
	for _, f := range detail.FieldList {
		t.AppendRow([]any{f.Name, f.Type, yesNo(f.Nullable), yesNo(f.Serialized)})
	}
	t.Render()

	if len(detail.RelationList) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(w)
	t = newTable(w, "Relation", "Kind", "Type", "Keys")
	for _, r := range detail.RelationList {
		t.AppendRow([]any{r.Name, r.Kind, r.Type, relationKeys(r)})
	}
	t.Render()
	return nil
}

func relationKeys(r relationDetail) string {
	var parts []string
	if r.Key != "" {
		parts = append(parts, "key="+r.Key)
	}
	if r.OtherKey != "" {
		parts = append(parts, "other_key="+r.OtherKey)
	}
	if r.JoinTable != "" {
		parts = append(parts, "join_table="+r.JoinTable)
	}
	if len(parts) == 0 {
		return "(defaults)"
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
