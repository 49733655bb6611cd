// Package seed writes a question bank and demo accounts into the store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stemsi/quizroom/seeds"
)

// Report counts what Apply wrote.
type Report struct {
	UsersCreated     int
	UsersSkipped     int
	QuestionsCreated int
}

// Seeder writes a bank into the store.
type Seeder struct {
	db   *database.DB
	auth *service.AuthService
	now  func() time.Time
	log  zerolog.Logger
}

func NewSeeder(db *database.DB, auth *service.AuthService, log zerolog.Logger) *Seeder {
	return &Seeder{
		db:   db,
		auth: auth,
		now:  time.Now,
		log:  log.With().Str("component", "seed").Logger(),
	}
}

// Apply creates the users, then inserts every question in one transaction.
func (s *Seeder) Apply(ctx context.Context, b *seeds.Bank) (Report, error) {
	var rep Report

	for _, u := range b.Users {
		_, err := s.auth.Register(ctx, service.RegisterInput{
			Username: u.Username,
			Password: u.Password,
			FullName: u.FullName,
			Email:    u.Email,
			Role:     model.Role(strings.ToUpper(u.Role)),
		})
		if errors.Is(err, service.ErrUsernameTaken) {
			s.log.Debug().Str("username", u.Username).Msg("User exists, skipping")
			rep.UsersSkipped++
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		rep.UsersCreated++
	}

	now := s.now().Unix()
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		questions := repository.NewQuestionRepository(tx)
		for i, q := range b.Questions {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("encode options of question %d: %w", i+1, err)
			}
			row := &model.Question{
				Text:          strings.TrimSpace(q.Text),
				Options:       options,
				CorrectOption: q.Correct,
				Difficulty:    model.Difficulty(strings.ToUpper(q.Difficulty)),
				Topic:         q.Topic,
				CreatedAt:     now,
			}
			if err := questions.Create(ctx, row); err != nil {
				return fmt.Errorf("insert question %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return rep, err
	}
	rep.QuestionsCreated = len(b.Questions)
	return rep, nil
}
