// Package assessments grades assignment submissions and scores quiz attempts.
package assessments

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"learnhub/pkg/apperr"
	"learnhub/pkg/kfka"
	"learnhub/pkg/storage"
)

const (
	MinQuestions = 1
	MaxQuestions = 50
	OptionCount  = 4
	MaxGrade     = 100
)

type Service struct {
	store  storage.Store
	events kfka.Publisher
	log    *log.Logger
	now    func() time.Time
}

func NewService(store storage.Store, events kfka.Publisher, logger *log.Logger) *Service {
	if events == nil {
		events = kfka.Noop{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "assessments: ", log.LstdFlags)
	}
	return &Service{
		store:  store,
		events: events,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// checkTarget makes sure the course exists. The module id is only checked for shape.
func (s *Service) checkTarget(ctx context.Context, courseID, moduleID string) error {
	if err := apperr.CheckID("course", courseID); err != nil {
		return err
	}
	if err := apperr.CheckID("module", moduleID); err != nil {
		return err
	}
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return lookupErr(err, "course")
	}
	return nil
}

func lookupErr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return errors.Wrapf(err, "%s store", what)
}
