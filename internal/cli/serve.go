package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/spf13/cobra"

	chiadapter "github.com/gork-labs/polymorphic/pkg/adapters/chi"
	echoadapter "github.com/gork-labs/polymorphic/pkg/adapters/echo"
	fiberadapter "github.com/gork-labs/polymorphic/pkg/adapters/fiber"
	ginadapter "github.com/gork-labs/polymorphic/pkg/adapters/gin"
	gorillaadapter "github.com/gork-labs/polymorphic/pkg/adapters/gorilla"
	"github.com/gork-labs/polymorphic/pkg/browsable"
	"github.com/gork-labs/polymorphic/pkg/forms"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr, router string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browsable blog API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if router != "" {
				a.cfg.Server.Router = router
			}

			handler, err := browsable.NewHandler(a.dispatcher, a.store,
				browsable.WithLogger(a.logger.WithName("http")),
				browsable.WithPrefix(a.cfg.Server.Prefix),
				browsable.WithPage(forms.PageConfig{Title: a.cfg.API.Title}),
				browsable.WithOpenAPI(a.cfg.API.OpenAPIPath, a.cfg.API.Version),
			)
			if err != nil {
				return err
			}

			mounted, err := mount(a.cfg.Server.Router, handler)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, mounted)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address; overrides server.addr")
	cmd.Flags().StringVar(&router, "router", "", "Router: stdlib, chi, gorilla, echo, gin or fiber; overrides server.router")

	return cmd
}

// mount returns h mounted on the named router.
func mount(router string, h *browsable.Handler) (http.Handler, error) {
	switch router {
	case "", "stdlib":
		return h, nil
	case "chi":
		return chiadapter.Mount(nil, h), nil
	case "gorilla":
		return gorillaadapter.Mount(nil, h), nil
	case "echo":
		e := echoadapter.Mount(nil, h)
		e.HideBanner = true
		return e, nil
	case "gin":
		ginpkg.SetMode(ginpkg.ReleaseMode)
		return ginadapter.Mount(nil, h), nil
	case "fiber":
		return adaptor.FiberApp(fiberadapter.Mount(nil, h)), nil
	default:
		return nil, fmt.Errorf("unsupported router: %s", router)
	}
}

func serve(ctx context.Context, a *app, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "addr", srv.Addr, "prefix", a.cfg.Server.Prefix, "router", a.cfg.Server.Router)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
