// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	_ "github.com/terrasense/hub/docs"
	"github.com/terrasense/hub/internal/config"
	"github.com/terrasense/hub/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

// @title TerraSense Hub API
// @version 1.0
// @description Backend for environmental sensor devices: telemetry ingestion, device provisioning, tiered reading access and threshold notifications.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting TerraSense Hub Server v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"  ______                    _____                     ",
		" /_  __/__  ______________ / ___/___  ____  ________  ",
		"  / / / _ \\/ ___/ ___/ __ `\\__ \\/ _ \\/ __ \\/ ___/ _ \\ ",
		" / / /  __/ /  / /  / /_/ /__/ /  __/ / / (__  )  __/ ",
		"/_/  \\___/_/  /_/   \\__,_/____/\\___/_/ /_/____/\\___/  ",
		"...................................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
