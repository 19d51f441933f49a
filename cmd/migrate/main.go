package main

import (
	"flag"
	"fmt"
	"os"

	"guestbook/pkg/config"
	"guestbook/pkg/database"
	"guestbook/pkg/logger"
)

// migrate lists the embedded migrations, or applies them with -up.
func main() {
	up := flag.Bool("up", false, "apply pending migrations to DATABASE_URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	files, err := database.Migrations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Collected %d migrations\n", len(files))
	for _, f := range files {
		fmt.Printf(" - %s\n", f)
	}

	if !*up {
		return
	}

	db, err := database.Connect(cfg.Server.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
