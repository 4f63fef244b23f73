package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/go-scopes/examples/stack"
	"github.com/km-arc/go-scopes/framework/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := console.Execute(ctx, console.Catalog(stack.Catalog()), os.Args[1:])
	stop()
	os.Exit(code)
}
