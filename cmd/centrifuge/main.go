package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"centrifuge/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		if services.IsBatchFatal(err) {
			fmt.Fprintln(os.Stderr, "nothing was changed; inspect the settings with `centrifuge config show`")
		}
		os.Exit(1)
	}
}
