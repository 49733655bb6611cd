package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
)

// quota is the paper size and per-difficulty counts of a room.
type quota struct {
	total  int
	counts map[model.Difficulty]int
}

// roomQuota applies the paper-size fallbacks: the sum of the difficulty
// counts when no total is set, then 10 questions split 4/4/2.
func roomQuota(r *model.Room) quota {
	q := quota{
		total: r.TotalQuestions,
		counts: map[model.Difficulty]int{
			model.DifficultyEasy:   r.EasyCount,
			model.DifficultyMedium: r.MediumCount,
			model.DifficultyHard:   r.HardCount,
		},
	}
	if q.total <= 0 {
		q.total = r.EasyCount + r.MediumCount + r.HardCount
	}
	if q.total <= 0 {
		q.total = 10
		q.counts[model.DifficultyEasy] = 4
		q.counts[model.DifficultyMedium] = 4
		q.counts[model.DifficultyHard] = 2
	}
	return q
}

// pickQuestions draws a paper: each difficulty up to its count, any
// shortfall filled from the rest of the bank, any overshoot trimmed at
// random.
func pickQuestions(ctx context.Context, questions *repository.QuestionRepository, q quota) ([]model.Question, error) {
	var picked []model.Question
	for _, d := range model.Difficulties {
		batch, err := questions.RandomByDifficulty(ctx, d, q.counts[d])
		if err != nil {
			return nil, fmt.Errorf("pick %s questions: %w", d, err)
		}
		picked = append(picked, batch...)
	}

	if len(picked) < q.total {
		ids := make([]int64, len(picked))
		for i, p := range picked {
			ids[i] = p.ID
		}
		fill, err := questions.RandomExcluding(ctx, ids, q.total-len(picked))
		if err != nil {
			return nil, fmt.Errorf("fill questions: %w", err)
		}
		picked = append(picked, fill...)
	}

	if len(picked) > q.total {
		rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
		picked = picked[:q.total]
	}
	return picked, nil
}
