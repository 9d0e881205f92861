package main

import (
	"fmt"
	"os"

	"github.com/altinsoy/destek/common/version"
	"github.com/altinsoy/destek/internal/destek/app"
	"github.com/altinsoy/destek/internal/destek/config"
	"github.com/altinsoy/destek/internal/destek/observability"
)

func main() {
	fmt.Printf("Destek Chat API %s\n", version.Info())

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	observability.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize destek: %v\n", err)
		os.Exit(1)
	}
	defer a.Stop()

	if err := a.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running destek: %v\n", err)
		os.Exit(1)
	}
}
