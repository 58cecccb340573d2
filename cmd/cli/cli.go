package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	tomlsrc "github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/woonstadrotterdam/sqlgate/internal/config"
	"github.com/woonstadrotterdam/sqlgate/internal/db"
	"github.com/woonstadrotterdam/sqlgate/internal/db/sqltext"
	"github.com/woonstadrotterdam/sqlgate/internal/export"
	"github.com/woonstadrotterdam/sqlgate/internal/tools"
)

var exportFormats = []string{"xlsx", "csv"}

type gatewayAction func(ctx context.Context, c *cli.Command, t *tools.Tools, gw *db.Gateway) error

// Run wires the resolved configuration into the command surface and executes
// it. Every command opens the gateway, runs one operation, prints its text
// to stdout and closes the pool.
func Run(cfg *config.Config) error {
	var (
		configPath   string
		url          string
		schema       string
		timeout      int
		maxRows      int
		write        bool
		limit        int
		exportFormat string
	)

	withGateway := func(fn gatewayAction) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			if url != "" {
				cfg.DatabaseURL = url
			}
			if schema != "" {
				cfg.SchemaName = schema
			}
			if timeout > 0 {
				cfg.MaxQueryTimeout = timeout
			}
			if maxRows > 0 {
				cfg.MaxResultRows = maxRows
			}
			if write {
				readOnly := false
				cfg.ReadOnly = &readOnly
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database URL must be provided (--url, DATABASE_URL or config file)")
			}

			gw, err := db.Open(cfg.DatabaseURL, cfg.Policy(), cfg.SchemaName)
			if err != nil {
				return err
			}
			defer gw.Close()

			return fn(ctx, c, tools.New(gw), gw)
		}
	}

	cmd := &cli.Command{
		Name:        "sqlgate",
		Description: "Safe SQL execution gateway for sqlite, postgres and mysql",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Value:       "./config/config.toml",
				Usage:       "path to the TOML configuration file",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "url",
				Aliases:     []string{"u"},
				Usage:       "database URL (sqlite://, postgresql:// or mysql://)",
				Destination: &url,
				Sources: cli.NewValueSourceChain(
					tomlsrc.TOML("database_url", altsrc.NewStringPtrSourcer(&configPath))),
			},
			&cli.StringFlag{
				Name:        "schema",
				Aliases:     []string{"s"},
				Usage:       "schema override applied to connections and introspection",
				Destination: &schema,
				Sources: cli.NewValueSourceChain(
					tomlsrc.TOML("schema_name", altsrc.NewStringPtrSourcer(&configPath))),
			},
			&cli.IntFlag{
				Name:        "timeout",
				Usage:       "maximum query execution time in seconds",
				Destination: &timeout,
			},
			&cli.IntFlag{
				Name:        "max-rows",
				Usage:       "maximum number of result rows returned",
				Destination: &maxRows,
			},
			&cli.BoolFlag{
				Name:        "write",
				Usage:       "disable read-only mode",
				Destination: &write,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "read",
				Usage:     "execute a read-only SQL query",
				ArgsUsage: "<sql>",
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.ExecuteReadQuery(ctx, c.Args().Get(0)))
					return nil
				}),
			},
			{
				Name:      "query",
				Usage:     "execute a SQL query under the configured policy",
				ArgsUsage: "<sql>",
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.ExecuteQuery(ctx, c.Args().Get(0)))
					return nil
				}),
			},
			{
				Name:  "schemas",
				Usage: "list all schemas",
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.ListSchemas(ctx))
					return nil
				}),
			},
			{
				Name:      "tables",
				Usage:     "list tables, optionally of one schema",
				ArgsUsage: "[schema]",
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.ListTables(ctx, c.Args().Get(0)))
					return nil
				}),
			},
			{
				Name:      "describe",
				Usage:     "describe a table's structure",
				ArgsUsage: "<table> [schema]",
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.DescribeTable(ctx, c.Args().Get(0), c.Args().Get(1)))
					return nil
				}),
			},
			{
				Name:      "data",
				Usage:     "sample rows from a table",
				ArgsUsage: "<table> [schema]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"l"},
						Usage:       "number of rows to sample",
						Destination: &limit,
					},
				},
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.GetTableData(ctx, c.Args().Get(0), c.Args().Get(1), limit))
					return nil
				}),
			},
			{
				Name:      "unique",
				Usage:     "list distinct values of a column with their frequencies",
				ArgsUsage: "<table> <column> [schema]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"l"},
						Usage:       "number of values to return",
						Destination: &limit,
					},
				},
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.GetUniqueValues(ctx, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), limit))
					return nil
				}),
			},
			{
				Name:  "relationships",
				Usage: "report the foreign key structure of the database",
				Action: withGateway(func(ctx context.Context, c *cli.Command, t *tools.Tools, _ *db.Gateway) error {
					fmt.Println(t.GetTableRelationships(ctx))
					return nil
				}),
			},
			{
				Name:      "export",
				Usage:     "run a read-only query and write the result to a file",
				ArgsUsage: "<sql> <path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Aliases:     []string{"f"},
						Usage:       "output format, derived from the path extension when omitted",
						Destination: &exportFormat,
					},
				},
				Action: withGateway(func(ctx context.Context, c *cli.Command, _ *tools.Tools, gw *db.Gateway) error {
					return runExport(ctx, gw, c.Args().Get(0), c.Args().Get(1), exportFormat)
				}),
			},
		},
	}

	return cmd.Run(context.Background(), os.Args)
}

func runExport(ctx context.Context, gw *db.Gateway, query, savePath, exportFormat string) error {
	if strings.TrimSpace(query) == "" || savePath == "" {
		return fmt.Errorf("export needs a SQL query and an output path")
	}
	if !sqltext.IsReadOnly(query) {
		return fmt.Errorf("only read-only queries can be exported")
	}

	if exportFormat == "" {
		exportFormat = strings.TrimPrefix(filepath.Ext(savePath), ".")
		if exportFormat == "" {
			return fmt.Errorf("output format is neither given nor derivable from %q", savePath)
		}
	}
	if err := validateExportFormat(exportFormat); err != nil {
		return err
	}

	result, err := gw.ExecuteReadOnly(ctx, query)
	if err != nil {
		return err
	}

	switch strings.ToLower(exportFormat) {
	case "xlsx":
		err = export.WriteXLSX(savePath, result)
	case "csv":
		err = export.WriteCSV(savePath, result)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows to %s\n", len(result.Rows), savePath)
	return nil
}

func validateExportFormat(format string) error {
	for _, f := range exportFormats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("export format %q not implemented (available: %s)",
		format, strings.Join(exportFormats, ", "))
}
