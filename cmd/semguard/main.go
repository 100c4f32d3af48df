package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/emenda-labs/semguard/core/cli"
	"github.com/emenda-labs/semguard/core/orchestrator"
	golangdriver "github.com/emenda-labs/semguard/drivers/golang"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(golangdriver.NewDriver(), os.Stdout)

	var globals cli.GlobalOptions
	root := cli.NewRootCmd(version, &globals)
	root.AddCommand(cli.NewInitCmd(&globals, orch.Init))
	root.AddCommand(cli.NewDiffCmd(&globals, orch.Diff))
	root.AddCommand(cli.NewBumpCmd(&globals, orch.Bump))

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
