package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"gopkg.in/yaml.v3"

	"github.com/gork-labs/polymorphic/internal/blog"
	"github.com/gork-labs/polymorphic/internal/config"
	"github.com/gork-labs/polymorphic/pkg/polymorphic"
	"github.com/gork-labs/polymorphic/pkg/store"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	ConfigPath string
	EnvFile    string
}

// app is the wiring shared by the commands: configuration, logging and the
// demo blog dispatcher over an in-memory store.
type app struct {
	cfg        config.Config
	logger     logr.Logger
	store      *store.Memory
	dispatcher *polymorphic.Dispatcher
}

func newApp(flags *globalFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(config.Options{File: flags.ConfigPath, EnvFile: flags.EnvFile})
	if err != nil {
		return nil, err
	}
	logger := newLogger(logOut, cfg.Log.Verbosity)

	st := store.NewMemory()
	d, err := blog.NewDispatcher(st, cfg.API.Discriminator, cfg.API.RejectTypeChange)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}
	return &app{cfg: cfg, logger: logger, store: st, dispatcher: d}, nil
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity}).WithName("polyctl")
}

// readPayload reads a JSON or YAML document.
func readPayload(path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return payload, nil
}
