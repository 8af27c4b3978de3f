// Command seed inserts sample catalog entries.
package main

import (
	"context"
	"log"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/database"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/repository"
)

func str(s string) *string { return &s }

var samples = []model.Movie{
	{
		Title:       "Inception",
		Kind:        model.KindMovie,
		Director:    str("Christopher Nolan"),
		Budget:      str("$160M"),
		Location:    str("LA, Paris"),
		Duration:    str("148 min"),
		Year:        str("2010"),
		Description: str("A thief who steals corporate secrets through dream-sharing technology."),
	},
	{
		Title:       "Breaking Bad",
		Kind:        model.KindTVShow,
		Director:    str("Vince Gilligan"),
		Budget:      str("$3M/ep"),
		Location:    str("Albuquerque"),
		Duration:    str("49 min/ep"),
		Year:        str("2008-2013"),
		Description: str("A high school chemistry instructor turns to manufacturing methamphetamine."),
	},
}

func main() {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewMovieRepo(db)
	for i := range samples {
		m := samples[i]
		if err := repo.Create(ctx, &m); err != nil {
			log.Fatalf("seed %q: %v", m.Title, err)
		}
		log.Printf("seeded #%d %s (%s)", m.ID, m.Title, m.Kind)
	}
}
