package main

import (
	"context"
	"os"
	"time"

	"akleg-data/cmd/akleg/commands"
	"akleg-data/lib/serviceutil"
	"akleg-data/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	err := telemetry.SetupFromEnv(ctx, "akleg")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx, 15*time.Second)

	code := commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = telemetry.Shutdown(shutdownCtx)
	if err != nil {
		serviceutil.Fatal("flush telemetry", err)
	}
	os.Exit(code)
}
