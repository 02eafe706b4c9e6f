package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/magicbox/pkg/cli"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage/sqlite"
)

var schemaFlags struct {
	format string
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect schema files",
}

var schemaValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a schema file",
	Long: `Load a schema file and report its models, or every problem found in it.

The path defaults to schema.path from the configuration.

Examples:
  magicbox schema validate
  magicbox schema validate ./schema.yaml --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchemaValidate,
}

var schemaSQLCmd = &cobra.Command{
	Use:   "sql [path]",
	Short: "Print the CREATE TABLE statements for a schema",
	Long: `Print the statements serve runs against the sqlite backend to create
missing tables. Nothing is executed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchemaSQL,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaValidateCmd, schemaSQLCmd)

	schemaValidateCmd.Flags().StringVar(&schemaFlags.format, "format", "text", "output format: text, json")
}

// ModelSummary describes one model in schema validate output.
type ModelSummary struct {
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	PrimaryKey string   `json:"primary_key"`
	Fields     []string `json:"fields"`
	Relations  []string `json:"relations,omitempty"`
}

// SchemaReport is the output of schema validate.
type SchemaReport struct {
	Path   string         `json:"path"`
	Models []ModelSummary `json:"models"`
}

func (r SchemaReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ %s is valid (%d models)\n", r.Path, len(r.Models))
	for _, m := range r.Models {
		fmt.Fprintf(&sb, "  %s (table %s, pk %s)\n", m.Name, m.Table, m.PrimaryKey)
		fmt.Fprintf(&sb, "    fields:    %s\n", strings.Join(m.Fields, ", "))
		if len(m.Relations) > 0 {
			fmt.Fprintf(&sb, "    relations: %s\n", strings.Join(m.Relations, ", "))
		}
	}
	return sb.String()
}

func loadSchema(args []string) (string, *schema.Registry, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return "", nil, err
		}
		path = cfg.Schema.Path
	}

	reg, err := schema.Load(path)
	if err != nil {
		return path, nil, cli.NewConfigError(path, err)
	}
	return path, reg, nil
}

func runSchemaValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(schemaFlags.format)
	if err != nil {
		return err
	}
	path, reg, err := loadSchema(args)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summarize(path, reg))
}

func summarize(path string, reg *schema.Registry) SchemaReport {
	report := SchemaReport{Path: path}
	for _, m := range reg.Models() {
		s := ModelSummary{Name: m.Name, Table: m.Table, PrimaryKey: m.PrimaryKey}
		for _, f := range m.Fields {
			s.Fields = append(s.Fields, fmt.Sprintf("%s:%s", f.Name, f.Type))
		}
		for _, r := range m.Relations {
			s.Relations = append(s.Relations, fmt.Sprintf("%s->%s (%s)", r.Name, r.Model, r.Kind))
		}
		report.Models = append(report.Models, s)
	}
	return report
}

func runSchemaSQL(cmd *cobra.Command, args []string) error {
	_, reg, err := loadSchema(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range reg.Models() {
		fmt.Fprintf(out, "%s;\n\n", sqlite.CreateTableSQL(m))
	}
	return nil
}
