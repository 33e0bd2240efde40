package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag(defaultDir string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing seed CSV files",
		Value:   defaultDir,
		EnvVars: []string{"SEED_DATA_DIR"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with materials, BOMs and production orders",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:  "materials",
				Usage: "Seed materials from materials.csv",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag("./data/seeds"),
				},
				Before: initDB,
				After:  closeDB,
				Action: seedMaterials,
			},
			{
				Name:  "boms",
				Usage: "Seed BOMs from boms.csv and bom_lines.csv",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag("./data/seeds"),
				},
				Before: initDB,
				After:  closeDB,
				Action: seedBOMs,
			},
			{
				Name:  "orders",
				Usage: "Seed production orders from orders.csv",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag("./data/seeds"),
				},
				Before: initDB,
				After:  closeDB,
				Action: seedOrders,
			},
			{
				Name:  "all",
				Usage: "Seed materials, BOMs and orders in dependency order",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag("./data/seeds"),
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if err := seedMaterials(c); err != nil {
						return err
					}
					if err := seedBOMs(c); err != nil {
						return err
					}
					return seedOrders(c)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
