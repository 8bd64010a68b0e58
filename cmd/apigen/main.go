// apigen infers the Doctrine relational model of OpenAPI documents.
//
//	apigen resolve --suffix Entity --target var/model openapi.yaml
//	apigen plan --dialect postgres openapi.yaml
//	apigen migrate --dialect sqlite --dsn "file:app.db?_pragma=foreign_keys(1)" openapi.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
