package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gocompare/adapters/api"
	"gocompare/adapters/excel"
	"gocompare/adapters/postgres"
	"gocompare/app"
	"gocompare/domain/study"
	"gocompare/internal"
	"gocompare/internal/config"
	"gocompare/internal/migration"
	"gocompare/internal/testkit"
	"gocompare/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	gin.SetMode(appConfig.Server.GinMode)

	runs, cleanup, err := openRunStore(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer cleanup()

	// The trigger endpoint needs a design and a dataset on disk. When the
	// design file is missing the read endpoints still serve stored runs.
	var pipeline api.AnalysisRunner
	design, err := study.Load(appConfig.Paths.DesignPath)
	if err != nil {
		log.Printf("Analysis trigger disabled, design not loadable: %v", err)
		design = nil
	} else {
		reader := excel.NewDataReader(appConfig.Paths.DataPath, appConfig.Analysis.InputSheet, logger)
		reportWriter := excel.NewReportWriter(appConfig.Paths.OutputDir, excel.WriterConfig{
			AddBlankRows:   appConfig.Report.AddBlankRows,
			ApplyTimestamp: appConfig.Report.ApplyTimestamp,
		}, logger)
		pipeline = app.NewAnalysisService(reader, reportWriter, runs, logger)
	}

	server := api.NewServer(runs, pipeline, design, logger)
	if err := server.Start(":" + appConfig.Server.APIPort); err != nil {
		log.Fatal("Server failed:", err)
	}
}

// openRunStore connects to Postgres when DATABASE_URL is set and bootstraps
// the schema. Without a database it serves an in-memory repository seeded
// with one demo run.
func openRunStore(appConfig *config.Config, logger *internal.Logger) (ports.RunRepository, func(), error) {
	if appConfig.Database.URL == "" {
		log.Println("DATABASE_URL not set, serving in-memory demo data")
		repo, err := seedDemoRepository(logger)
		return repo, func() {}, err
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRunRepository(db), func() { db.Close() }, nil
}

func seedDemoRepository(logger *internal.Logger) (ports.RunRepository, error) {
	kit := testkit.NewTestKit()
	frame, err := testkit.NewDemoDataGenerator(testkit.DefaultDemoConfig()).GenerateFrame()
	if err != nil {
		return nil, err
	}

	service := app.NewAnalysisService(testkit.NewStaticDatasetReader(frame), nil, kit.RunWriter(), logger)
	if _, err := service.Run(context.Background(), app.AnalysisRequest{Design: testkit.DemoDesign()}); err != nil {
		return nil, err
	}
	return kit.RunRepository(), nil
}
