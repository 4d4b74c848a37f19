package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mindforge-ai/mindforge-backend/internal/app"
)

func main() {
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	addr := ":" + a.Cfg.Port
	a.Log.Info("Starting server", "addr", addr)
	if err := a.Run(addr); err != nil {
		fmt.Printf("server exited: %v\n", err)
		os.Exit(1)
	}
}
