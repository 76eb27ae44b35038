package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/portal"
	backendsvc "github.com/trezcool/marksboard/services/backend"
	logsvc "github.com/trezcool/marksboard/services/logger"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stderr, "CLI : "), conf)
	validate, translator := core.NewValidator()
	client := backendsvc.New(conf.Backend, logger)
	shellOpts := portal.OptionsFromConfig(conf, logger, validate, translator)

	// start CLI
	cli := commandLine{
		newShell: func() *portal.Shell { return portal.NewShell(client, shellOpts) },
		out:      os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.run(ctx, os.Args)
	stop()
	if err != nil && err != errHelp {
		logger.Info(fmt.Sprintf("error: %s", err))
	}
	logger.Close()

	if err != nil {
		os.Exit(1)
	}
}
