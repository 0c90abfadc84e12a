// Package main runs the orbit gallery window.
//
// It reads config from flags/env and runs the gallery until the window closes or the process is interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/oxy-gallery/gallery/app"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/config"
)

func init() {
	// GLFW requires the main goroutine to stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("gallery: %v", err)
	}
}
