package kfka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type Handler func(ctx context.Context, e Event) error

// Listen consumes topics as part of group until ctx is cancelled. A message that
// fails to decode or handle is logged and skipped.
func Listen(ctx context.Context, addr, group string, topics []string, logger *log.Logger, handle Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{addr},
		GroupID:     group,
		GroupTopics: topics,
	})
	defer reader.Close()
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read message")
		}
		if err := dispatch(ctx, m, handle); err != nil {
			logger.Printf("kafka: %s offset %d: %v", m.Topic, m.Offset, err)
		}
	}
}

func dispatch(ctx context.Context, m kafka.Message, handle Handler) error {
	var e Event
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return errors.Wrap(err, "decode event")
	}
	e.Topic = m.Topic
	return handle(ctx, e)
}

// ActivityLog writes one line per event.
func ActivityLog(logger *log.Logger) Handler {
	return func(_ context.Context, e Event) error {
		logger.Printf("activity %s course=%s user=%s lesson=%s at=%s",
			e.Type, e.CourseID, e.UserID, e.LessonID, e.OccurredAt.Format(time.RFC3339))
		return nil
	}
}

func AllTopics() []string {
	return []string{TopicEnrollments, TopicLessonAdded, TopicLessonUpdated, TopicQuizResults, TopicGrades}
}
