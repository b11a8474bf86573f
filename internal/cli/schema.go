package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gork-labs/polymorphic/pkg/openapi"
)

// SchemaConfig holds configuration for schema generation.
type SchemaConfig struct {
	OutputPath string
	Version    string
	Format     string
}

func newSchemaCommand(flags *globalFlags) *cobra.Command {
	var config SchemaConfig

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate the OpenAPI schema of the blog dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			version := config.Version
			if version == "" {
				version = a.cfg.API.Version
			}
			doc := openapi.NewDocument(a.cfg.API.Title, version, a.dispatcher)

			var out []byte
			switch config.Format {
			case "json":
				out, err = openapi.MarshalJSON(doc)
			case "yaml":
				out, err = openapi.MarshalYAML(doc)
			default:
				return fmt.Errorf("unsupported format: %s", config.Format)
			}
			if err != nil {
				return err
			}

			if config.OutputPath == "-" {
				_, err = cmd.OutOrStdout().Write(append(out, '\n'))
				return err
			}
			if err := os.WriteFile(filepath.Clean(config.OutputPath), out, 0o600); err != nil {
				return fmt.Errorf("write schema: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&config.OutputPath, "output", "-", "Path to output file or '-' for stdout")
	cmd.Flags().StringVar(&config.Version, "version", "", "API version; overrides api.version")
	cmd.Flags().StringVar(&config.Format, "format", "json", "Output format: json or yaml")

	return cmd
}
