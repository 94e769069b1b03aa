package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gocompare/adapters/postgres"
	"gocompare/internal"
	"gocompare/internal/config"
	"gocompare/ports"
	"gocompare/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Without a database the dashboard seeds its own in-memory demo run.
	var reader ports.RunReader
	if appConfig.Database.URL != "" {
		db, err := sqlx.Connect("postgres", appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		reader = postgres.NewRunRepository(db)
	}

	app, err := ui.NewApp(ui.Config{
		Addr:   ":" + appConfig.Server.UIPort,
		Reader: reader,
		Logger: internal.NewDefaultLogger(),
	})
	if err != nil {
		log.Fatal("Failed to create dashboard:", err)
	}

	log.Fatal(app.Start())
}
