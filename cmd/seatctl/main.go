package main

import (
	"context"

	"seatfinder-backend/cmd/seatctl/commands"
	"seatfinder-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "seatctl")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
