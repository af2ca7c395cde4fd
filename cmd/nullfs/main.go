package main

import (
	"context"
	"os"

	"nullfs/internal/logging"
)

var (
	logger = logging.GetLogger()
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("%v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
