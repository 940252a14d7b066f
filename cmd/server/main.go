package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	pointsHandler := handlers.NewPointsHandler(service)
	studentsHandler := handlers.NewStudentsHandler(service)
	adminHandler := handlers.NewAdminHandler(service)

	http.HandleFunc("POST /api/v1/points", pointsHandler.HandleSubmit)
	http.HandleFunc("GET /api/v1/points/today", pointsHandler.HandleToday)
	http.HandleFunc("GET /api/v1/points/history", pointsHandler.HandleHistory)
	http.HandleFunc("GET /api/v1/points/leaderboard", pointsHandler.HandleLeaderboard)
	http.HandleFunc("GET /api/v1/points/statistics", pointsHandler.HandleStatistics)
	http.HandleFunc("PATCH /api/v1/points/{id}", pointsHandler.HandleEdit)
	http.HandleFunc("DELETE /api/v1/points/{id}", pointsHandler.HandleDelete)

	http.HandleFunc("POST /api/v1/students", studentsHandler.HandleRegister)
	http.HandleFunc("GET /api/v1/students", studentsHandler.HandleList)
	http.HandleFunc("GET /api/v1/students/sections", studentsHandler.HandleSections)

	http.HandleFunc("GET /api/v1/admin/students", adminHandler.HandleListStudents)
	http.HandleFunc("PATCH /api/v1/admin/students/{id}/role", adminHandler.HandleSetRole)
	http.HandleFunc("PATCH /api/v1/admin/students/{id}/status", adminHandler.HandleSetStatus)
	http.HandleFunc("DELETE /api/v1/admin/students/{id}", adminHandler.HandleDeleteStudent)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting kardemumma server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Kardemumma server failed: %v", err)
	}
}
