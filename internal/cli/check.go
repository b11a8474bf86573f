package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gork-labs/polymorphic/pkg/openapi"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Check the structure of an OpenAPI document; '-' reads stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(filepath.Clean(args[0]))
			}
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			if err := openapi.Validate(data); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "OpenAPI document is valid")
			return err
		},
	}
}
