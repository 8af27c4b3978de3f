// Command migrate applies the embedded schema migrations to the configured
// MySQL database.
//
//	migrate [up|down|status|version|reset]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|status|version|reset]\n", os.Args[0])
	}
	flag.Parse()
	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName, CAPath: cfg.DBCAPath,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	m, err := database.NewMigrator(db, "mysql")
	if err != nil {
		log.Fatal(err)
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "status":
		err = m.Status()
	case "reset":
		err = m.Reset()
	case "version":
		var v int64
		if v, err = m.Version(); err == nil {
			fmt.Println(v)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}
