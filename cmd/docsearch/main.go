// Command docsearch imports document folders into vector collections and
// answers similarity queries over them from the terminal or over MCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsearch/internal/core/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetSettingsService(settingsService)

	settings, err := settingsService.Get()
	if err == nil {
		var p *pipeline
		if p, err = buildPipeline(settings); err == nil {
			defer p.Close()
			cli.SetServices(p.services)
		}
	}
	if err != nil {
		// Settings commands still work so the configuration can be fixed.
		cli.SetStartupError(err)
	}

	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
