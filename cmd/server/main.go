package main

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"recondoc/internal/ai"
	"recondoc/internal/ai/glm"
	"recondoc/internal/ai/openai"
	"recondoc/internal/config"
	"recondoc/internal/handler"
	"recondoc/internal/ocr"
	"recondoc/internal/ocr/raster"
	"recondoc/internal/ocr/tesseract"
	"recondoc/internal/port"
	"recondoc/internal/reconcile"
	"recondoc/internal/repository/postgres"
	"recondoc/internal/router"
	"recondoc/internal/service"
	s3storage "recondoc/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Metrics store is optional; without it threshold adaptation has no
	// history and runs are not recorded.
	var db *sqlx.DB
	var runs port.AnalysisRunRepository
	if cfg.DB.Enabled() {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		runs = postgres.NewAnalysisRunRepo(db)
	} else {
		log.Printf("main: no database configured; analysis runs will not be recorded")
	}

	// Archival storage is optional as well.
	var storage port.ObjectStorage
	if cfg.S3.Enabled() {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Text extraction pipeline
	runner := ocr.ExecRunner{}
	rasterizer := raster.NewPdftoppm(cfg.OCR.Pdftoppm, runner)
	gs := raster.NewGhostscript(cfg.OCR.Ghostscript, runner)
	tess := tesseract.NewEngine(cfg.OCR.Tesseract, runner, cfg.OCR.TSVConfidence)
	engine := ocr.NewEngine(cfg.OCR, runner, rasterizer, gs, tess)

	// AI providers in fallback order
	var providers []port.CompletionProvider
	for _, pc := range []config.ProviderConfig{cfg.AI.Primary, cfg.AI.Secondary} {
		if !pc.Configured() {
			continue
		}
		p, err := newProvider(pc)
		if err != nil {
			return err
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		log.Printf("main: no AI providers configured; analysis will rely on filename classification")
	}
	aiSvc := ai.NewService(providers...)

	analysisSvc := service.NewAnalysisService(cfg, engine, aiSvc, reconcile.NewManager(), runs, storage)

	analyzeH := handler.NewAnalyzeHandler(analysisSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(analyzeH, healthH, cfg.Server.CORSOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func newProvider(pc config.ProviderConfig) (port.CompletionProvider, error) {
	switch pc.Provider {
	case "glm":
		return glm.NewClient(pc), nil
	case "openai":
		return openai.NewClient(pc), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", pc.Provider)
	}
}
