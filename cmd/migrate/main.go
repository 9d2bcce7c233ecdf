package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [up|drop|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [up|drop|seed]")
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			phone      TEXT NOT NULL UNIQUE,
			role       TEXT NOT NULL CHECK (role IN ('guard', 'resident', 'admin')),
			flat_id    TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS visits (
			id                 TEXT PRIMARY KEY,
			visitor_id         TEXT,
			name_snapshot      TEXT NOT NULL,
			phone_snapshot     TEXT,
			photo_snapshot_url TEXT,
			purpose            TEXT NOT NULL,
			owner_id           TEXT NOT NULL REFERENCES users(id),
			guard_id           TEXT NOT NULL REFERENCES users(id),
			entry_time         TIMESTAMPTZ,
			exit_time          TIMESTAMPTZ,
			cancelled_at       TIMESTAMPTZ,
			status             TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'auto_approved')),
			qr_token           TEXT,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_pending
			ON visits (created_at DESC)
			WHERE status = 'pending' AND cancelled_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_visits_owner_created
			ON visits (owner_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	fmt.Println("  Created: users, visits")

	return nil
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS visits CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	query := `
		INSERT INTO users (id, name, phone, role, flat_id) VALUES
			('guard-1', 'Main Gate', '+911000000001', 'guard', NULL),
			('resident-1', 'Asha Verma', '+911000000002', 'resident', 'A-101'),
			('resident-2', 'Rahul Mehta', '+911000000003', 'resident', 'B-204')
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	fmt.Println("  Seeded: 1 guard, 2 residents")

	return nil
}
