// Package main provides polyctl, the polymorphic serializer tool.
package main

import (
	"os"

	"github.com/gork-labs/polymorphic/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
