package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to start grader: %v", err)
	}
	defer service.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cycles never overlap: a fatal grading error kills the process so
	// the supervisor restarts it, everything else is a per-submission
	// status already handled inside the cycle.
	fatal := make(chan error, 1)
	scheduler := cron.New()
	_, err = scheduler.AddFunc(service.Config.Course.PollSchedule, func() {
		if err := service.RunCycle(ctx); err != nil {
			select {
			case fatal <- err:
			default:
			}
		}
	})
	if err != nil {
		logger.Error.Fatalf("Invalid poll schedule %q: %v", service.Config.Course.PollSchedule, err)
	}

	logger.Info.Printf("Start grading process, polling on schedule %q.", service.Config.Course.PollSchedule)
	scheduler.Start()
	defer scheduler.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-fatal:
		cancel()
		logger.Error.Fatalf("Unrecoverable grading error: %v", err)
	case sig := <-sigChan:
		logger.Info.Printf("Received %s, shutting down grader.", sig)
	}
}
