package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
	clockport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/clock"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/quoter"
)

// Recorder receives timing and outcome signals from the service.
type Recorder interface {
	ObserveSync(op string, elapsed time.Duration, err error)
	Submitted(quote float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSync(string, time.Duration, error) {}
func (nopRecorder) Submitted(float64)                        {}

type Service struct {
	repo   applicationrepo.Repository
	quoter quoter.Quoter
	clk    clockport.Clock
	sync   Synchronizer

	newApplicationID func() domain.ApplicationID

	// ResumeRouteTemplate builds the client URL for resuming an application.
	// Every "{id}" is replaced with the application id.
	ResumeRouteTemplate string

	Recorder Recorder
}

func NewService(repo applicationrepo.Repository, q quoter.Quoter, clk clockport.Clock) *Service {
	return &Service{
		repo:   repo,
		quoter: q,
		clk:    clk,
		sync:   Synchronizer{NewID: uuid.NewString},
		newApplicationID: func() domain.ApplicationID {
			return domain.ApplicationID(uuid.NewString())
		},
		ResumeRouteTemplate: "/applications/{id}",
		Recorder:            nopRecorder{},
	}
}

// Create starts a new draft application, optionally seeded with records.
func (s *Service) Create(ctx context.Context, in Payload) (CreateResult, error) {
	now := s.clk.Now()
	id := s.newApplicationID()

	start := time.Now()
	var app domain.Application
	err := s.repo.InTx(ctx, func(tx applicationrepo.Tx) error {
		if err := tx.CreateApplication(ctx, domain.Application{
			ID:        id,
			Status:    domain.ApplicationStatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		var err error
		if in.IsEmpty() {
			app, err = tx.Load(ctx, id)
			return err
		}
		app, err = s.sync.Apply(ctx, tx, id, in, now)
		return err
	})
	s.recorder().ObserveSync("create", time.Since(start), err)
	if err != nil {
		return CreateResult{}, internal(msgCreateFailed, err)
	}

	return CreateResult{
		Message:     fmt.Sprintf("Start a new insurance application with id %s", id),
		Application: app,
		ResumeRoute: strings.ReplaceAll(s.ResumeRouteTemplate, "{id}", string(id)),
	}, nil
}

// Get returns the full application aggregate.
func (s *Service) Get(ctx context.Context, rawID string) (domain.Application, error) {
	id, ok := parseID(rawID)
	if !ok {
		return domain.Application{}, notFound(msgNotFoundForID)
	}
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, applicationrepo.ErrNotFound) {
			return domain.Application{}, notFound(msgNotFoundForID)
		}
		return domain.Application{}, err
	}
	return app, nil
}

// SaveDraft applies the lenient checks and replaces the stored records with the payload.
func (s *Service) SaveDraft(ctx context.Context, rawID string, in Payload) (domain.Application, error) {
	id, ok := parseID(rawID)
	if !ok {
		return domain.Application{}, notFound(msgNotFound)
	}
	now := s.clk.Now()
	if errs := draftChecks(now, in); len(errs) > 0 {
		return domain.Application{}, validationError(errs)
	}

	start := time.Now()
	var app domain.Application
	err := s.repo.InTx(ctx, func(tx applicationrepo.Tx) error {
		if err := ensureDraft(ctx, tx, id); err != nil {
			return err
		}
		var err error
		app, err = s.sync.Apply(ctx, tx, id, in, now)
		return err
	})
	s.recorder().ObserveSync("draft", time.Since(start), err)
	if err != nil {
		return domain.Application{}, mapTxError(err, msgUpdateFailed)
	}
	return app, nil
}

// Submit applies the strict checks, stores the final records and prices the application.
func (s *Service) Submit(ctx context.Context, rawID string, in Payload) (SubmitResult, error) {
	id, ok := parseID(rawID)
	if !ok {
		return SubmitResult{}, notFound(msgNotFound)
	}
	now := s.clk.Now()
	if errs := submitChecks(now, in); len(errs) > 0 {
		return SubmitResult{}, validationError(errs)
	}

	start := time.Now()
	var (
		app   domain.Application
		quote float64
	)
	err := s.repo.InTx(ctx, func(tx applicationrepo.Tx) error {
		if err := ensureDraft(ctx, tx, id); err != nil {
			return err
		}
		synced, err := s.sync.Apply(ctx, tx, id, in, now)
		if err != nil {
			return err
		}
		quote, err = s.quoter.Quote(ctx, synced)
		if err != nil {
			return fmt.Errorf("quote: %w", err)
		}
		if err := tx.MarkSubmitted(ctx, id, quote, now); err != nil {
			return err
		}
		app, err = tx.Load(ctx, id)
		return err
	})
	s.recorder().ObserveSync("submit", time.Since(start), err)
	if err != nil {
		return SubmitResult{}, mapTxError(err, msgSubmitFailed)
	}
	s.recorder().Submitted(quote)

	return SubmitResult{
		Message:     fmt.Sprintf("Updated insurance application with id %s", id),
		Application: app,
		QuoteNumber: quote,
	}, nil
}

// Delete removes the application and everything attached to it.
func (s *Service) Delete(ctx context.Context, rawID string) (string, error) {
	id, ok := parseID(rawID)
	if !ok {
		return "", notFound(msgNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, applicationrepo.ErrNotFound) {
			return "", notFound(msgNotFound)
		}
		return "", internal(msgDeleteFailed, err)
	}
	return fmt.Sprintf("Deleted application with id %s", id), nil
}

func (s *Service) recorder() Recorder {
	if s.Recorder == nil {
		return nopRecorder{}
	}
	return s.Recorder
}

func ensureDraft(ctx context.Context, tx applicationrepo.Tx, id domain.ApplicationID) error {
	app, err := tx.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if app.IsSubmitted() {
		return &Error{Status: 409, Code: CodeSubmitted, Message: msgAlreadySubmitted}
	}
	return nil
}

func mapTxError(err error, msg string) error {
	if ae := (*Error)(nil); errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, applicationrepo.ErrNotFound) {
		return notFound(msgNotFound)
	}
	return internal(msg, err)
}

// parseID rejects ids that cannot name a stored application.
func parseID(raw string) (domain.ApplicationID, bool) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return domain.ApplicationID(u.String()), true
}
