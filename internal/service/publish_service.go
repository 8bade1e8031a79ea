package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// SystemDecider stamps records decided by the publish sweep rather than an
// admin.
const SystemDecider = "SYSTEM"

type publishTimetableStore interface {
	Read() (*models.TimetableDocument, error)
	Write(doc *models.TimetableDocument) error
	Path() string
}

type ledgerSweeper interface {
	Snapshot() (*models.ChangeRequestLedger, error)
	SupersedeAllPending(decidedBy, reason string) (int, error)
	Reset() error
}

type historyKeeper interface {
	Snapshot(src, filename string) (string, error)
	SaveJSON(filename string, v interface{}) (string, error)
}

// PublishService promotes the negotiated draft into the official document
// and rolls the cycle forward one week.
type PublishService struct {
	official publishTimetableStore
	draft    publishTimetableStore
	requests ledgerSweeper
	history  historyKeeper
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewPublishService wires the service.
func NewPublishService(official, draft publishTimetableStore, requests ledgerSweeper, history historyKeeper, metrics *MetricsService, logger *zap.Logger) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{
		official: official,
		draft:    draft,
		requests: requests,
		history:  history,
		metrics:  metrics,
		logger:   logger,
	}
}

// Publish backs up the official document, promotes the draft into it and
// seeds the next cycle. An omitted weekStart falls back to the draft's own
// cycle week. The backup and the promotion must both succeed; ledger
// housekeeping is best-effort and never blocks the cycle.
func (s *PublishService) Publish(ctx context.Context, weekStart string) (*dto.PublishResult, error) {
	draft, err := s.draft.Read()
	if err != nil {
		return nil, err
	}

	target := strings.TrimSpace(weekStart)
	if target == "" {
		target = draft.WeekStart
	}
	parsed, err := time.Parse(models.DateLayout, target)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("week_start %q is not a valid date (expected YYYY-MM-DD)", target))
	}
	monday := models.MondayOf(parsed)
	mondayStr := monday.Format(models.DateLayout)

	// Force the official file onto disk so the backup has a source even on
	// a fresh deployment.
	if _, err := s.official.Read(); err != nil {
		return nil, err
	}

	backupName := fmt.Sprintf("timetable_%s.json", monday.Format("20060102"))
	backupPath, err := s.history.Snapshot(s.official.Path(), backupName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "backup official timetable")
	}

	s.sweepLedger(monday, mondayStr)

	official := &models.TimetableDocument{
		Version:  draft.Version,
		Sessions: models.CloneSessions(draft.Sessions),
	}
	if err := s.official.Write(official); err != nil {
		return nil, err
	}

	next := &models.TimetableDocument{
		Version:   draft.Version,
		WeekStart: monday.AddDate(0, 0, 7).Format(models.DateLayout),
		Revision:  draft.Revision + 1,
		Sessions:  models.CloneSessions(draft.Sessions),
	}
	if err := s.draft.Write(next); err != nil {
		return nil, err
	}

	s.metrics.RecordPublish()
	s.logger.Info("cycle published",
		zap.String("week_start", mondayStr),
		zap.Int("version", official.Version),
		zap.Int("sessions", len(official.Sessions)),
		zap.String("next_week_start", next.WeekStart),
		zap.Int("next_revision", next.Revision))

	return &dto.PublishResult{
		Backup: dto.PublishBackup{Path: backupPath, WeekStart: mondayStr},
		Published: dto.PublishedInfo{
			Version:  official.Version,
			Sessions: len(official.Sessions),
		},
		Next: dto.NextDraftInfo{
			WeekStart: next.WeekStart,
			Revision:  next.Revision,
		},
	}, nil
}

// sweepLedger stamps leftover PENDING records, archives the ledger and
// empties it for the next cycle. Failures are logged and swallowed: losing
// ledger housekeeping must never abort a publish.
func (s *PublishService) sweepLedger(monday time.Time, mondayStr string) {
	reason := fmt.Sprintf("Cycle published for week_start=%s", mondayStr)
	if count, err := s.requests.SupersedeAllPending(SystemDecider, reason); err != nil {
		s.logger.Warn("pending sweep failed", zap.Error(err))
	} else if count > 0 {
		s.logger.Info("pending requests superseded", zap.Int("count", count))
	}

	ledger, err := s.requests.Snapshot()
	if err != nil {
		s.logger.Warn("ledger snapshot failed", zap.Error(err))
		return
	}
	archiveName := fmt.Sprintf("change_requests_%s.json", monday.Format("20060102"))
	if _, err := s.history.SaveJSON(archiveName, ledger); err != nil {
		s.logger.Warn("ledger archive failed", zap.Error(err))
		return
	}
	if err := s.requests.Reset(); err != nil {
		s.logger.Warn("ledger reset failed", zap.Error(err))
	}
}
