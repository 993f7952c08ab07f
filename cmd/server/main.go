package main

import (
	"flag"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	submissionHandler := handlers.NewSubmissionHandler(service)

	http.HandleFunc("GET /api/v1/lessons/{lesson}/submissions", submissionHandler.HandleLessonSubmissions)
	http.HandleFunc("GET /api/v1/students/{email}/grades", submissionHandler.HandleStudentGrades)

	http.Handle("/metrics", promhttp.Handler())

	port := service.Config.Server.Port
	if port == "" {
		port = ":8080"
	}
	logger.Info.Printf("Starting lussekatt server on %s", port)
	if err := http.ListenAndServe(port, nil); err != nil {
		logger.Error.Fatalf("Lussekatt server failed: %v", err)
	}
}
