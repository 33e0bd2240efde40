package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/tranvda/mfg-backend/internal/config"
	"github.com/tranvda/mfg-backend/internal/drive"
	"github.com/tranvda/mfg-backend/internal/repository"
	"github.com/tranvda/mfg-backend/internal/repository/postgres"
)

// The sync service exposes the Drive-backed material snapshot import on
// its own port, separate from the analytics API.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	credentials := os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON")
	if credentials == "" && cfg.Drive.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			log.Fatalf("Failed to read drive credentials file: %v", err)
		}
		credentials = string(raw)
	}

	driveService, err := drive.NewService(credentials)
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ingestRepo := repository.NewIngestRepository(db.DB.DB)
	ingestService := drive.NewIngestService(driveService, ingestRepo)

	r := mux.NewRouter()
	driveHandler := drive.NewHandler(driveService, ingestService)
	driveHandler.RegisterRoutes(r)

	// Optional background poll of the configured snapshot folder.
	if cfg.Drive.Enabled && cfg.Drive.FolderID != "" {
		interval := time.Duration(cfg.Drive.PollSeconds) * time.Second
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				n, err := ingestService.IngestFolder(context.Background(), cfg.Drive.FolderID, cfg.App.UploadDir)
				if err != nil {
					log.Printf("drive poll: %v", err)
					continue
				}
				log.Printf("drive poll: imported %d rows", n)
			}
		}()
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Sync service starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
