package kfka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	TopicEnrollments   = "course_enrollments"
	TopicLessonAdded   = "course_notifications"
	TopicLessonUpdated = "course_update_notifications"
	TopicQuizResults   = "testresult_notifications"
	TopicGrades        = "assignment_notifications"
)

type Event struct {
	Topic      string    `json:"-"`
	Type       string    `json:"event_type"`
	UserID     string    `json:"user_id,omitempty"`
	CourseID   string    `json:"course_id,omitempty"`
	ModuleID   string    `json:"module_id,omitempty"`
	LessonID   string    `json:"lesson_id,omitempty"`
	QuizID     string    `json:"quiz_id,omitempty"`
	Assignment string    `json:"assignment_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Score      *int      `json:"score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers domain events. Callers log failures and carry on; events are
// notifications, not part of the write.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// PublishTimeout bounds how long Notify waits on a publisher.
var PublishTimeout = 500 * time.Millisecond

type Writer struct {
	writer *kafka.Writer
}

// NewWriter returns an asynchronous writer: Publish only enqueues, and delivery
// failures are reported to logger.
func NewWriter(addr string, logger *log.Logger) *Writer {
	return &Writer{writer: &kafka.Writer{
		Addr:         kafka.TCP(addr),
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Printf("kafka: %d event(s) not delivered: %v", len(messages), err)
			}
		},
	}}
}

func (w *Writer) Publish(ctx context.Context, e Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	err = w.writer.WriteMessages(ctx, kafka.Message{
		Topic: e.Topic,
		Key:   []byte(e.CourseID),
		Value: msg,
	})
	return errors.Wrapf(err, "publish %s", e.Type)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// Notify publishes e and only logs a failure. It gives up after PublishTimeout so a
// stalled broker never holds the caller.
func Notify(ctx context.Context, p Publisher, logger *log.Logger, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		logger.Println("kafka:", err)
	}
}
