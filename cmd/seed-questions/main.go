package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/logger"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/seed"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stemsi/quizroom/seeds"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "Path to the YAML question bank (default: built-in demo bank)")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	data := seeds.Questions
	if file != "" {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
		}
	}
	bank, err := seeds.Parse(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid seed file")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer db.Close()

	authService := service.NewAuthService(
		service.NewStoreLock(),
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		cfg.SessionTTL, cfg.BcryptCost, log,
	)

	fmt.Printf("=== Seeding %d users and %d questions ===\n", len(bank.Users), len(bank.Questions))

	rep, err := seed.NewSeeder(db, authService, log).Apply(ctx, bank)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	total, err := repository.NewQuestionRepository(db).Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count questions")
	}

	fmt.Printf("Users created: %d, skipped: %d\n", rep.UsersCreated, rep.UsersSkipped)
	fmt.Printf("Questions created: %d (bank now holds %d)\n", rep.QuestionsCreated, total)
}
