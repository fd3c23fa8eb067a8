package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	taterboardcmd "github.com/gamma-delta/tater-board/internal/cmd/taterboard"
)

func main() {
	cfg, err := taterboardcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TATERBOARD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := taterboardcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
