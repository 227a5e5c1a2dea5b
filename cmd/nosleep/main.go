package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/stigoleg/nosleep/internal/cli"
)

var version = "dev"

func main() {
	err := cli.NewRootCmd(version).ExecuteContext(context.Background())
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	_, _ = fmt.Fprintf(os.Stderr, "nosleep: %v\n", err)
	os.Exit(1)
}
