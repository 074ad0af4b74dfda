package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/certprep/certprep-backend/internal/config"
	"github.com/certprep/certprep-backend/internal/database"
	"github.com/certprep/certprep-backend/internal/logger"
	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/repository"
)

// seedQuestion is the on-disk format: one JSON array of these.
type seedQuestion struct {
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
	Domain        string `json:"domain"`
	Explanation   string `json:"explanation"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "questions.json", "Path to the question bank JSON file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup("seed-questions", cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read question file")
	}

	var seeds []seedQuestion
	if err := json.Unmarshal(data, &seeds); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse question file")
	}

	fmt.Printf("=== Seeding %d Questions ===\n", len(seeds))

	created := 0
	for i, s := range seeds {
		key := model.OptionKey(s.CorrectAnswer)
		if !model.ValidOptionKey(key) {
			log.Warn().Int("index", i).Str("correct_answer", s.CorrectAnswer).Msg("Skipping question with invalid answer key")
			continue
		}
		q := &model.Question{
			QuestionText:  s.QuestionText,
			OptionA:       s.OptionA,
			OptionB:       s.OptionB,
			OptionC:       s.OptionC,
			OptionD:       s.OptionD,
			CorrectAnswer: key,
			Domain:        s.Domain,
			Explanation:   s.Explanation,
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("Failed to insert question")
		}
		created++
	}

	total, err := questionRepo.Count(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count questions")
	}

	fmt.Printf("Done. Inserted %d questions, bank now holds %d.\n", created, total)
}
