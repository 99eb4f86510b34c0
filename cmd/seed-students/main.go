package main

import (
	"context"
	"fmt"
	"time"

	"github.com/focusloop/focusloop-backend/internal/config"
	"github.com/focusloop/focusloop-backend/internal/database"
	"github.com/focusloop/focusloop-backend/internal/logger"
	"github.com/focusloop/focusloop-backend/internal/model"
	"github.com/focusloop/focusloop-backend/internal/repository"
	"github.com/focusloop/focusloop-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	authService := service.NewAuthService(cfg, rdb)

	fmt.Println("=== Seeding demo students ===")

	type seedStudent struct {
		email         string
		name          string
		gradeLevel    string
		attentionSpan model.AttentionSpan
		weak          []string
		strong        []string
	}

	seeds := []seedStudent{
		{"alex@example.com", "Alex Morgan", "7", model.AttentionSpanShort, []string{"math"}, []string{"reading"}},
		{"jordan@example.com", "Jordan Lee", "7", model.AttentionSpanMedium, []string{"science"}, []string{"math"}},
		{"sam@example.com", "Sam Rivera", "8", model.AttentionSpanShort, []string{"reading", "science"}, nil},
		{"casey@example.com", "Casey Kim", "8", model.AttentionSpanLong, nil, []string{"science", "math"}},
		{"taylor@example.com", "Taylor Brooks", "6", model.AttentionSpanMedium, []string{"math"}, nil},
	}

	hash, err := authService.HashPassword("focusloop")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	successCount := 0
	for _, s := range seeds {
		student := &model.Student{
			Email:          s.email,
			Name:           s.name,
			PasswordHash:   hash,
			GradeLevel:     s.gradeLevel,
			AttentionSpan:  s.attentionSpan,
			WeakSubjects:   s.weak,
			StrongSubjects: s.strong,
		}
		if student.WeakSubjects == nil {
			student.WeakSubjects = []string{}
		}
		if student.StrongSubjects == nil {
			student.StrongSubjects = []string{}
		}

		if err := studentRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating student %s: %v\n", s.email, err)
			continue
		}
		successCount++
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students (password: focusloop).\n", successCount, len(seeds))
}
