package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/iliyamo/restaurant-reservation/cmd/server/bootstrap"
)

func main() {
	app := fx.New(
		bootstrap.Module,
		fx.WithLogger(bootstrap.FxLogger),
		fx.StopTimeout(15*time.Second),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	sig := <-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	os.Exit(sig.ExitCode)
}
