package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/contractbot/contract-reminder/internal/entity"
	"github.com/contractbot/contract-reminder/internal/repository"
	"github.com/contractbot/contract-reminder/internal/yadisk"
)

// Transport delivers a document plus caption to one chat.
type Transport interface {
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// Renderer produces the notification document for a record.
type Renderer interface {
	Render(rec entity.ContractRecord, docType entity.DocumentType) (string, error)
}

// FileSource exposes the latest cached workbook.
type FileSource interface {
	GetLatest() (string, bool)
}

// Parser converts a workbook file into contract records.
type Parser func(path string) ([]entity.ContractRecord, error)

// Result are the bookkeeping counts of one pipeline run. Processed is
// fixed at ingestion; Skipped counts expired or deadline-less records
// only, never per-recipient dedup skips.
type Result struct {
	Processed int
	Notified  int
	Skipped   int
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Source    FileSource
	Parse     Parser
	Chats     repository.ChatRepository
	Ledger    repository.NotificationRepository
	Renderer  Renderer
	Transport Transport
	Disk      *yadisk.Client
	Location  *time.Location
	Logger    *slog.Logger
}

// Service reconciles the cached spreadsheet against the notification
// ledger and dispatches due reminder documents.
type Service struct {
	source    FileSource
	parse     Parser
	chats     repository.ChatRepository
	ledger    repository.NotificationRepository
	renderer  Renderer
	transport Transport
	disk      *yadisk.Client
	loc       *time.Location
	logger    *slog.Logger

	mu          sync.Mutex
	horizonDays int

	runMu sync.Mutex
}

func NewService(deps Deps, defaultHorizonDays int) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		source:      deps.Source,
		parse:       deps.Parse,
		chats:       deps.Chats,
		ledger:      deps.Ledger,
		renderer:    deps.Renderer,
		transport:   deps.Transport,
		disk:        deps.Disk,
		loc:         loc,
		logger:      logger,
		horizonDays: defaultHorizonDays,
	}
}

// Horizon returns the current reminder horizon in days.
func (s *Service) Horizon() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.horizonDays
}

// UpdateHorizon accepts a new horizon only when it is positive; sheet
// sync pushes parse failures as non-positive values and the previous
// horizon must survive those.
func (s *Service) UpdateHorizon(days int) {
	if days <= 0 {
		return
	}
	s.mu.Lock()
	changed := days != s.horizonDays
	s.horizonDays = days
	s.mu.Unlock()
	if changed {
		s.logger.Info("reminder horizon updated", "days", days)
	}
}

// Run executes one reconciliation pass. force bypasses the dedup
// ledger and re-delivers everything due. A failure on one
// (record, recipient) unit never blocks the rest; the units that
// failed are reported as one joined error next to the partial counts.
//
// Passes never interleave: the ledger gate is check-then-act, so a
// second caller blocks until the active pass finishes.
func (s *Service) Run(ctx context.Context, force bool) (Result, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	path, ok := s.source.GetLatest()
	if !ok {
		s.logger.Info("no cached workbook yet, reminders skipped")
		return Result{}, nil
	}

	records, err := s.parseOffLoop(ctx, path)
	if err != nil {
		return Result{}, err
	}

	today := dateOnly(time.Now().In(s.loc))
	horizon := s.Horizon()
	result := Result{Processed: len(records)}

	chats, err := s.chats.List(ctx)
	if err != nil {
		return result, err
	}
	if len(chats) == 0 {
		s.logger.Info("no registered chats, nothing to notify")
		return result, nil
	}

	var failures []error
	for _, rec := range records {
		if !rec.HasEndDate() {
			result.Skipped++
			continue
		}
		daysLeft := daysBetween(today, dateOnly(rec.EndDate))
		if daysLeft < 0 {
			result.Skipped++
			continue
		}
		if daysLeft > horizon {
			// not yet due: excluded silently, still counted as processed
			continue
		}

		for _, docType := range candidateTypes(rec) {
			key := entity.NotificationKey(rec.Employee, rec.EndDate, docType)
			for _, chat := range chats {
				if !force {
					has, err := s.ledger.Has(ctx, chat.ID, key)
					if err != nil {
						failures = append(failures, fmt.Errorf("ledger check %s for chat %d: %w", key, chat.ID, err))
						continue
					}
					if has {
						s.logger.Debug("already notified", "key", key, "chat_id", chat.ID)
						continue
					}
				}
				if err := s.notify(ctx, chat.ID, rec, docType, key, daysLeft); err != nil {
					failures = append(failures, fmt.Errorf("notify chat %d with %s: %w", chat.ID, key, err))
					continue
				}
				result.Notified++
			}
		}
	}
	return result, errors.Join(failures...)
}

// candidateTypes preserves the over-notification bias: when the
// spreadsheet does not disambiguate the document type, both are sent
// rather than risking a missed obligation.
func candidateTypes(rec entity.ContractRecord) []entity.DocumentType {
	if docType, ok := rec.Classify(); ok {
		return []entity.DocumentType{docType}
	}
	return []entity.DocumentType{entity.DocumentExtension, entity.DocumentTermination}
}

// notify renders, dispatches and only then records the ledger entry,
// so a failed render or send leaves no stray dedup state.
func (s *Service) notify(ctx context.Context, chatID int64, rec entity.ContractRecord, docType entity.DocumentType, key string, daysLeft int) error {
	docPath, err := s.renderer.Render(rec, docType)
	if err != nil {
		return err
	}

	link := ""
	if s.disk != nil && s.disk.Enabled() {
		uploaded, err := s.disk.Upload(ctx, docPath)
		if err != nil {
			s.logger.Debug("disk upload unavailable", "error", err)
		} else {
			link = uploaded
		}
	}

	caption := buildCaption(rec, daysLeft, docType, link)
	if err := s.transport.SendDocument(ctx, chatID, docPath, caption); err != nil {
		return err
	}
	if err := s.ledger.Mark(ctx, chatID, key, time.Now()); err != nil {
		// delivery happened; surface the bookkeeping failure
		return fmt.Errorf("ledger mark after send: %w", err)
	}
	s.logger.Info("notification sent", "key", key, "chat_id", chatID)
	return nil
}

// parseOffLoop runs workbook parsing on its own goroutine so a large
// spreadsheet does not stall the caller's control loop.
func (s *Service) parseOffLoop(ctx context.Context, path string) ([]entity.ContractRecord, error) {
	type parsed struct {
		records []entity.ContractRecord
		err     error
	}
	ch := make(chan parsed, 1)
	go func() {
		records, err := s.parse(path)
		ch <- parsed{records: records, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		return out.records, out.err
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
