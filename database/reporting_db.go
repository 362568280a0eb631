package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"gensethub/config"
)

// ReportingDB is the global database instance for raw SQL reporting queries.
// Queries are written with `?` placeholders and rebound per driver via sqlx.
var ReportingDB *sqlx.DB

// InitReportingDB initializes the raw SQL connection used by the reports
func InitReportingDB() error {
	var err error

	switch config.AppConfig.DBDriver {
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
				config.AppConfig.DBHost,
				config.AppConfig.DBPort,
				config.AppConfig.DBUser,
				config.AppConfig.DBPassword,
				config.AppConfig.DBName)
		}

		ReportingDB, err = sqlx.Open("postgres", connStr)
		if err != nil {
			log.Printf("Failed to connect to PostgreSQL reporting database: %v", err)
			return err
		}

	case "sqlite", "sqlite3":
		dbDir := filepath.Dir(config.AppConfig.DBPath)
		if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
			log.Printf("Failed to create directory for SQLite database: %v", err)
			return err
		}

		ReportingDB, err = sqlx.Open("sqlite3", config.AppConfig.DBPath)
		if err != nil {
			log.Printf("Failed to connect to SQLite reporting database: %v", err)
			return err
		}

		if _, err = ReportingDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			log.Printf("Failed to enable foreign keys in SQLite: %v", err)
			return err
		}

	default:
		return fmt.Errorf("unsupported database driver: %s", config.AppConfig.DBDriver)
	}

	if err = ReportingDB.Ping(); err != nil {
		log.Printf("Failed to ping reporting database: %v", err)
		return err
	}

	log.Println("Reporting database connection established")
	return nil
}

// CloseReportingDB closes the reporting database connection
func CloseReportingDB() error {
	if ReportingDB != nil {
		return ReportingDB.Close()
	}
	return nil
}
