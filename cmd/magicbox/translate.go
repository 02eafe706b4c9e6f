package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/magicbox/pkg/cli"
	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/querystring"
	"mercator-hq/magicbox/pkg/repository"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage/sqlite"
)

var translateFlags struct {
	schemaPath string
	format     string
}

var translateCmd = &cobra.Command{
	Use:   "translate <model> [query-string]",
	Short: "Show the query a query string translates to",
	Long: `Decode a query string the way the server does and print the resulting query
description together with the SQL the sqlite backend would run. Nothing is
executed.

Examples:
  magicbox translate person 'filters[age]=>=18&filters[last_name]=!=smith'

  magicbox translate person 'filters[last_name]==smith&filters[or][age]=<20&sort[age]=desc'

  magicbox translate person 'aggregate[count]=articles&sort[articles__count]=desc' --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVar(&translateFlags.schemaPath, "schema", "", "schema file (uses config if not specified)")
	translateCmd.Flags().StringVar(&translateFlags.format, "format", "text", "output format: text, json")
}

// Translation is the output of the translate command.
type Translation struct {
	Model string       `json:"model"`
	Query *query.Query `json:"query"`
	Where string       `json:"where,omitempty"`
	SQL   string       `json:"sql"`
	Args  []any        `json:"args"`
}

func (t Translation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model: %s\n", t.Model)
	fmt.Fprintf(&sb, "Query: %s\n", t.Query)
	fmt.Fprintf(&sb, "SQL:   %s\n", t.SQL)
	if len(t.Args) > 0 {
		fmt.Fprintf(&sb, "Args:  %v\n", t.Args)
	}
	return sb.String()
}

func runTranslate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(translateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	schemaPath := translateFlags.schemaPath
	if schemaPath == "" {
		schemaPath = cfg.Schema.Path
	}
	reg, err := schema.Load(schemaPath)
	if err != nil {
		return cli.NewConfigError(schemaPath, err)
	}

	rawQuery := ""
	if len(args) > 1 {
		rawQuery = strings.TrimPrefix(args[1], "?")
	}
	t, err := translate(cfg, reg, args[0], rawQuery)
	if err != nil {
		return cli.NewCommandError("translate", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), t)
}

// translate builds the query for rawQuery against the named model and
// renders it as SQL.
func translate(cfg *config.Config, reg *schema.Registry, modelName, rawQuery string) (Translation, error) {
	m, ok := reg.Model(modelName)
	if !ok {
		return Translation{}, fmt.Errorf("unknown model %q", modelName)
	}

	params, err := querystring.DecodeQuery(rawQuery)
	if err != nil {
		return Translation{}, err
	}
	opts, err := repository.OptionsFromConfig(cfg)
	if err != nil {
		return Translation{}, err
	}

	req := repository.RequestFromParams(params, cfg.Params, nil)
	q, err := repository.BuildQuery(req, m, opts)
	if err != nil {
		return Translation{}, err
	}

	stmt, sqlArgs, err := sqlite.BuildSelect(m, q)
	if err != nil {
		return Translation{}, err
	}

	t := Translation{Model: m.Name, Query: q, SQL: stmt, Args: sqlArgs}
	if q.Where != nil {
		t.Where = q.Where.String()
	}
	if t.Args == nil {
		t.Args = []any{}
	}
	return t, nil
}
