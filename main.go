package main

import (
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/seadonggyun4/truthound-dashboard-sub010/anomalydetector"
	"github.com/seadonggyun4/truthound-dashboard-sub010/lineage"
	"github.com/seadonggyun4/truthound-dashboard-sub010/webhook"
)

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	store := lineage.NewStore()

	var detector lineage.AnomalyDetector
	if baseURL := os.Getenv("ANOMALY_SERVICE_URL"); baseURL != "" {
		detector = anomalydetector.NewClient(baseURL)
	} else {
		log.Println("ANOMALY_SERVICE_URL not set, anomaly overlays will report unknown status")
	}

	var publisher lineage.EventPublisher
	if raw := os.Getenv("OPENLINEAGE_WEBHOOK_URLS"); raw != "" {
		var receivers []string
		for _, url := range strings.Split(raw, ",") {
			if url = strings.TrimSpace(url); url != "" {
				receivers = append(receivers, url)
			}
		}
		publisher = webhook.NewDispatcher(receivers, nil)
		log.Printf("OpenLineage export will be pushed to %d receiver(s)", len(receivers))
	}

	api := lineage.NewAPI(store, detector, publisher)

	router := gin.Default()
	api.RegisterRoutes(router)

	port := getEnv("PORT", "8080")
	log.Printf("Starting lineage service on :%s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
