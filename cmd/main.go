// Package main is the production entry point for the TubeTune audio player.
//
// TubeTune plays audio from video and playlist URLs with clean architecture:
// - Event-driven communication (no callbacks)
// - Dependency injection for testability
// - MVP pattern for UI decoupling
// - Asynchronous downloads with look-ahead buffering
//
// Build:
//
//	go build -o build/tubetune ./cmd
//
// Run:
//
//	./build/tubetune
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ytaudio/tubetune/internal/app"
)

func main() {
	mock := flag.Bool("mock", false, "run with mock player and fetcher (no audio device, no network)")
	flag.Parse()

	// Create default configuration
	config := app.DefaultConfig()
	config.UseMockAV = *mock

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		fmt.Println("\nShutting down...")
		application.Shutdown()
		fmt.Println("Shutdown complete")
	}()

	// Run application (blocks until the window closed)
	application.Run()

	fmt.Println("Application exited cleanly")
}
