package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/menta2k/trombinoscope"
	"github.com/menta2k/trombinoscope/internal/cli"
)

func main() {
	app := cli.New()

	if err := fang.Execute(
		context.Background(),
		app.Root(),
		fang.WithVersion(trombinoscope.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
