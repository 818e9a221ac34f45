package sheetsync

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/contractbot/contract-reminder/internal/filecache"
	"github.com/contractbot/contract-reminder/internal/repository"
)

// tolerance absorbs scheduler jitter around the sync interval gate.
const tolerance = 5 * time.Second

// HorizonSink receives the reminder horizon read from the synced sheet.
type HorizonSink interface {
	UpdateHorizon(days int)
}

// Config is the remote source configuration for one logical sheet.
type Config struct {
	SheetID   string
	SheetGID  string
	SheetName string
	Filename  string
	Interval  time.Duration
	Timeout   time.Duration
}

// Service fetches the source spreadsheet, atomically replaces the
// cached copy and propagates the reminder horizon found in the sheet.
type Service struct {
	cfg     Config
	cache   *filecache.Cache
	chats   repository.ChatRepository
	client  *http.Client
	loc     *time.Location
	logger  *slog.Logger
	baseURL string

	mu       sync.Mutex
	lastSync time.Time
	sink     HorizonSink
}

func NewService(cfg Config, cache *filecache.Cache, chats repository.ChatRepository, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		cfg:     cfg,
		cache:   cache,
		chats:   chats,
		client:  &http.Client{Timeout: timeout},
		loc:     loc,
		logger:  logger,
		baseURL: defaultBaseURL,
	}
}

// AttachHorizonSink connects the reminder pipeline so horizon updates
// reach it after every successful sync.
func (s *Service) AttachHorizonSink(sink HorizonSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Enabled reports whether a remote source is configured.
func (s *Service) Enabled() bool {
	return s.cfg.SheetID != ""
}

// Sync fetches the remote sheet unless a sync already ran within the
// configured interval (force bypasses the gate). It never returns an
// error: failures are logged and reported as false so a broken remote
// can never take down the scheduler or a caller.
func (s *Service) Sync(ctx context.Context, force bool) bool {
	if !s.Enabled() {
		return false
	}

	now := time.Now().In(s.loc)
	s.mu.Lock()
	gate := s.cfg.Interval - tolerance
	if gate < 0 {
		gate = 0
	}
	if !force && !s.lastSync.IsZero() && now.Sub(s.lastSync) < gate {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if err := s.download(ctx); err != nil {
		s.logger.Warn("sheet sync failed", "error", err)
		return false
	}

	s.mu.Lock()
	s.lastSync = time.Now().In(s.loc)
	s.mu.Unlock()
	return true
}

// download tries each fetch strategy in order and on first success
// caches the workbook, stamps the chats and refreshes the horizon.
func (s *Service) download(ctx context.Context) error {
	var lastErr error
	for _, strategy := range s.strategies() {
		content, err := s.fetch(ctx, strategy)
		if err != nil {
			lastErr = err
			continue
		}

		path, err := s.cache.SaveLatest(content, s.cfg.Filename)
		if err != nil {
			return err
		}
		if err := s.chats.SetLastUploadAll(ctx, s.cfg.Filename, time.Now().In(s.loc)); err != nil {
			s.logger.Warn("failed to stamp chats after sync", "error", err)
		}
		s.refreshHorizon(path)
		s.logger.Info("sheet synchronized", "strategy", strategy.name, "path", path)
		return nil
	}
	return lastErr
}

// refreshHorizon reads the designated horizon cell from the cached
// workbook. Any failure keeps the previously known horizon.
func (s *Service) refreshHorizon(path string) {
	raw, err := readHorizonCell(path, s.cfg.SheetName)
	if err != nil {
		s.logger.Warn("failed to read reminder horizon", "error", err)
		return
	}
	days, ok := parseHorizon(raw)
	if !ok {
		return
	}
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.UpdateHorizon(days)
	}
}
