package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/config"
	"github.com/focusloop/focusloop-backend/internal/exam"
	"github.com/focusloop/focusloop-backend/internal/generation"
	"github.com/focusloop/focusloop-backend/internal/model"
)

// GeneratedSetTTL bounds how long a pre-generated set waits for a session.
const GeneratedSetTTL = 30 * time.Minute

// GenerationWorker consumes pre-generation requests, calls the question
// generator, and caches the resulting sets in Redis. Fallback sets are not
// cached; the bank is always instant anyway.
type GenerationWorker struct {
	generator *generation.Service
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewGenerationWorker creates a new GenerationWorker.
func NewGenerationWorker(generator *generation.Service, rdb *redis.Client, log zerolog.Logger) *GenerationWorker {
	return &GenerationWorker{
		generator: generator,
		rdb:       rdb,
		log:       log.With().Str("component", "generation_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *GenerationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GenerationWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GenerationWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.GenerationQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job model.GenerationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Discarding malformed JSON")
		return
	}

	w.generateAndCache(ctx, &job)
}

func (w *GenerationWorker) generateAndCache(ctx context.Context, job *model.GenerationJob) {
	questions, generated := w.generator.QuestionsFor(ctx, generation.Request{
		Topic:      job.Topic,
		Count:      job.Count,
		Difficulty: exam.Difficulty(job.Difficulty),
		Profile: generation.StudentProfile{
			GradeLevel:     job.GradeLevel,
			AttentionSpan:  job.AttentionSpan,
			WeakSubjects:   job.WeakSubjects,
			StrongSubjects: job.StrongSubjects,
		},
	})
	if !generated {
		w.log.Info().Str("topic", job.Topic).Msg("Provider unavailable, nothing to cache")
		return
	}

	raw, err := generation.EncodeQuestions(questions)
	if err != nil {
		w.log.Error().Err(err).Msg("Encode error")
		return
	}

	key := config.CacheKey.GeneratedSetKey(job.Topic, job.Count, job.Difficulty)
	if err := w.rdb.Set(ctx, key, raw, GeneratedSetTTL).Err(); err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("Cache write failed")
		return
	}

	w.log.Info().
		Str("topic", job.Topic).
		Int("count", len(questions)).
		Msg("Question set pre-generated and cached")
}
