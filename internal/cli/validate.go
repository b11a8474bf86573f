package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/gork-labs/polymorphic/pkg/serializer"
)

// ErrValidation is returned when a payload does not validate.
var ErrValidation = errors.New("payload is not valid")

func newValidateCommand(flags *globalFlags) *cobra.Command {
	var many, partial, save bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a JSON or YAML payload against the blog dispatcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			payload, err := readPayload(args[0])
			if err != nil {
				return err
			}

			opts := []serializer.Option{
				serializer.WithData(payload),
				serializer.WithContext(serializer.NewContext(cmd.Context(), map[string]any{"command": cmd.Name()})),
			}
			if many {
				opts = append(opts, serializer.Many())
			}
			if partial {
				opts = append(opts, serializer.Partial())
			}
			b := serializer.Bind(a.dispatcher, opts...)

			valid, err := b.IsValid()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if !valid {
				if many && b.Errors().Empty() {
					_ = enc.Encode(b.ListErrors())
				} else {
					_ = enc.Encode(b.Errors())
				}
				return ErrValidation
			}

			if save {
				if _, err := b.Save(); err != nil {
					return err
				}
				a.logger.V(1).Info("saved payload", "stored", a.store.Count())
			}
			if many {
				data, err := b.ListData()
				if err != nil {
					return err
				}
				return enc.Encode(data)
			}
			data, err := b.Data()
			if err != nil {
				return err
			}
			return enc.Encode(data)
		},
	}

	cmd.Flags().BoolVar(&many, "many", false, "Treat the payload as a list of items")
	cmd.Flags().BoolVar(&partial, "partial", false, "Allow missing fields")
	cmd.Flags().BoolVar(&save, "save", false, "Create the validated items in the in-memory store")

	return cmd
}
