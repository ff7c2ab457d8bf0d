package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getmockd/schemagate/pkg/cli/internal/output"
	"github.com/getmockd/schemagate/pkg/schema"
)

// SchemaFile describes one file in the schema directory.
type SchemaFile struct {
	File    string     `json:"file"`
	Key     schema.Key `json:"key"`
	Preload bool       `json:"preload"`
	Title   string     `json:"title,omitempty"`
	Version string     `json:"version,omitempty"`
	Error   string     `json:"error,omitempty"`
}

var schemasParse bool

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the schema files the gateway recognizes",
	Long: `List the OpenAPI schema files in the schema directory, in the order the
gateway preloads them, and mark the ones that fit in the validator cache.

With --parse every file is parsed and checked, and the command fails if any
of them is invalid.`,
	Example: `  schemagate schemas -c gateway.yaml
  schemagate schemas -c gateway.yaml --parse --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := schema.NewStore(cfg.App.SchemaDir)
		names, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list schemas: %w", err)
		}

		limit := cfg.App.OpenAPIValidator.CachedFileLimit
		files := make([]SchemaFile, 0, len(names))
		invalid := 0
		for i, name := range names {
			f := SchemaFile{File: name, Key: schema.KeyFromFilename(name), Preload: i < limit}
			if schemasParse {
				doc, err := schema.LoadFile(filepath.Join(store.Dir(), name))
				if err != nil {
					f.Error = err.Error()
					invalid++
				} else if doc.Info != nil {
					f.Title = doc.Info.Title
					f.Version = doc.Info.Version
				}
			}
			files = append(files, f)
		}

		out := cmd.OutOrStdout()
		if err := printResult(out, files, func() {
			if len(files) == 0 {
				fmt.Fprintf(out, "No schemas found in %s\n", store.Dir())
				return
			}
			tw := output.Table(out)
			if schemasParse {
				fmt.Fprintln(tw, "FILE\tKEY\tPRELOAD\tVERSION\tSTATUS")
			} else {
				fmt.Fprintln(tw, "FILE\tKEY\tPRELOAD")
			}
			for _, f := range files {
				preload := "no"
				if f.Preload {
					preload = "yes"
				}
				if !schemasParse {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.File, f.Key, preload)
					continue
				}
				status := "ok"
				if f.Error != "" {
					status = f.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.File, f.Key, preload, f.Version, status)
			}
			_ = tw.Flush()
		}); err != nil {
			return err
		}

		if invalid > 0 {
			return fmt.Errorf("%d of %d schemas are invalid", invalid, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
	schemasCmd.Flags().BoolVar(&schemasParse, "parse", false, "Parse and check every schema")
}
