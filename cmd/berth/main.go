package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/berthrelease/berth/internal/cli"
	berrors "github.com/berthrelease/berth/internal/errors"
)

func main() {
	if err := fang.Execute(context.Background(), cli.RootCmd); err != nil {
		os.Exit(berrors.ExitCode(err))
	}
}
