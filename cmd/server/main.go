package main

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-operations/internal/auth"
	"github.com/ukydev/fleet-operations/internal/config"
	"github.com/ukydev/fleet-operations/internal/correction"
	"github.com/ukydev/fleet-operations/internal/db"
	"github.com/ukydev/fleet-operations/internal/handlers"
	"github.com/ukydev/fleet-operations/internal/middleware"
	"github.com/ukydev/fleet-operations/internal/notify"
)

func main() {
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&log.JSONFormatter{})

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	database := client.Database(cfg.MongoDB)

	tripStore := &db.MongoTripStore{
		Client: client,
		Trips:  database.Collection("trips"),
	}
	correctionStore := &db.MongoCorrectionStore{
		Corrections:  database.Collection("corrections"),
		AuditEntries: database.Collection("audit_entries"),
	}

	var notifier notify.Publisher
	if cfg.MQTTBroker != "" {
		publisher, err := notify.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			// Corrections still work without event publishing.
			log.WithError(err).Warn("MQTT unavailable, correction events disabled")
		} else {
			notifier = publisher
			defer publisher.Close()
		}
	}

	service := correction.NewService(tripStore, correctionStore, notifier)
	handler := handlers.NewCorrectionHandler(service)

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/corrections/preview", handler.Preview)
	mux.HandleFunc("/api/corrections", handler.Correct)
	mux.HandleFunc("/api/corrections/history", handler.History)
	mux.HandleFunc("/api/corrections/audit", handler.AuditTrail)

	log.WithField("port", cfg.Port).Info("fleet-operations server listening")
	log.Fatal(http.ListenAndServe(":"+cfg.Port, authMiddleware.Authenticate(mux)))
}
