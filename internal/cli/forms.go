package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gork-labs/polymorphic/pkg/forms"
	"github.com/gork-labs/polymorphic/pkg/polymorphic"
	"github.com/gork-labs/polymorphic/pkg/serializer"
)

func newFormsCommand(flags *globalFlags) *cobra.Command {
	var dataPath string
	var page bool

	cmd := &cobra.Command{
		Use:   "forms",
		Short: "Render the HTML forms of the blog dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			renderer, err := polymorphic.NewFormRenderer(forms.NewHTMLRenderer(), a.logger, forms.PageConfig{Title: a.cfg.API.Title})
			if err != nil {
				return err
			}

			opts := []serializer.Option{serializer.WithContext(serializer.NewContext(cmd.Context(), nil))}
			if dataPath != "" {
				payload, err := readPayload(dataPath)
				if err != nil {
					return err
				}
				opts = append(opts, serializer.WithData(payload))
			}
			b := serializer.Bind(a.dispatcher, opts...)

			out := cmd.OutOrStdout()
			if page {
				return renderer.Render(out, forms.Request{Method: "GET", Path: a.cfg.Server.Prefix, Form: b})
			}

			rendered, err := renderer.RenderForm(b)
			if err != nil {
				return err
			}
			if !rendered.IsCollection() {
				_, err = fmt.Fprintln(out, rendered.Single)
				return err
			}
			for _, f := range rendered.Forms {
				if _, err := fmt.Fprintf(out, "== %s ==\n%s\n", f.Name, f.HTML); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "JSON or YAML payload to bind; '-' reads stdin")
	cmd.Flags().BoolVar(&page, "page", false, "Render the full browsable page")

	return cmd
}
