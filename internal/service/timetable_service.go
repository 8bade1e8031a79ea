package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type timetableStore interface {
	Read() (*models.TimetableDocument, error)
	AtomicUpdate(fn func(doc *models.TimetableDocument) (*models.TimetableDocument, error)) (*models.TimetableDocument, error)
	Path() string
}

type configReader interface {
	ReadConfig() (*models.InstitutionConfig, error)
	ReadCatalog() (*models.Catalog, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TimetableService serves timetable reads and version-guarded mutations over
// the official and draft documents.
type TimetableService struct {
	official timetableStore
	draft    timetableStore
	configs  configReader
	commands *CommandCache
	cache    viewCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// TimetableServiceOption configures the service.
type TimetableServiceOption func(*TimetableService)

// WithViewCache enables the redis read-through cache for timetable reads.
func WithViewCache(cache viewCache, ttl time.Duration) TimetableServiceOption {
	return func(s *TimetableService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithTimetableMetrics attaches domain metrics.
func WithTimetableMetrics(metrics *MetricsService) TimetableServiceOption {
	return func(s *TimetableService) {
		s.metrics = metrics
	}
}

// NewTimetableService wires the service. The command cache is injected so
// tests and callers control idempotency lifetime.
func NewTimetableService(official, draft timetableStore, configs configReader, commands *CommandCache, logger *zap.Logger, opts ...TimetableServiceOption) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if commands == nil {
		commands = NewCommandCache(0, 0)
	}
	svc := &TimetableService{
		official: official,
		draft:    draft,
		configs:  configs,
		commands: commands,
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func (s *TimetableService) storeFor(scope string) (timetableStore, string, *appErrors.Error) {
	switch scope {
	case "", dto.ScopeOfficial:
		return s.official, dto.ScopeOfficial, nil
	case dto.ScopeDraft:
		return s.draft, dto.ScopeDraft, nil
	}
	return nil, "", appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unknown scope %q", scope))
}

// Get returns the scoped document in its read shape. The second return
// reports whether the response was served from cache.
func (s *TimetableService) Get(ctx context.Context, scope string) (*dto.TimetableResponse, bool, error) {
	store, resolved, appErr := s.storeFor(scope)
	if appErr != nil {
		return nil, false, appErr
	}

	cacheKey := "timetable:" + resolved
	if s.cache != nil {
		cached := &dto.TimetableResponse{}
		if err := s.cache.Get(ctx, cacheKey, cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, true, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	doc, err := store.Read()
	if err != nil {
		return nil, false, err
	}
	resp := &dto.TimetableResponse{Version: doc.Version, Sessions: doc.Sessions}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
			s.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return resp, false, nil
}

// SessionsForGroup filters the scoped document down to one group's sessions.
// A session carrying a fusion group id matches every member group.
func (s *TimetableService) SessionsForGroup(ctx context.Context, scope, groupe string) (*dto.TimetableResponse, error) {
	store, _, appErr := s.storeFor(scope)
	if appErr != nil {
		return nil, appErr
	}
	want := strings.ToLower(strings.TrimSpace(groupe))
	if want == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "groupe is required")
	}

	catalog, err := s.configs.ReadCatalog()
	if err != nil {
		return nil, err
	}
	doc, err := store.Read()
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Session, 0)
	for _, session := range doc.Sessions {
		for _, id := range catalog.ExpandGroupIDs(session.Groupe) {
			if strings.ToLower(id) == want {
				filtered = append(filtered, session)
				break
			}
		}
	}
	return &dto.TimetableResponse{Version: doc.Version, Sessions: filtered}, nil
}

// GetDraft returns the draft document with its cycle metadata.
func (s *TimetableService) GetDraft(ctx context.Context) (*dto.DraftTimetableResponse, error) {
	doc, err := s.draft.Read()
	if err != nil {
		return nil, err
	}
	return &dto.DraftTimetableResponse{
		WeekStart: doc.WeekStart,
		Revision:  doc.Revision,
		Version:   doc.Version,
		Sessions:  doc.Sessions,
	}, nil
}

// ExecuteCommand applies a version-guarded mutation to the scoped document.
// A commandId seen before (within the idempotency window) replays the
// recorded outcome without touching the document.
func (s *TimetableService) ExecuteCommand(ctx context.Context, scope string, req dto.CommandRequest) (*dto.CommandResult, error) {
	store, resolved, appErr := s.storeFor(scope)
	if appErr != nil {
		return nil, appErr
	}
	if req.ExpectedVersion == nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "expectedVersion is required")
	}

	key := resolved + ":" + req.CommandID
	if cached, ok := s.commands.Get(key); ok {
		cached.Replayed = true
		s.metrics.RecordCommand(resolved, req.Type, "replayed")
		return &cached, nil
	}

	updated, err := store.AtomicUpdate(func(doc *models.TimetableDocument) (*models.TimetableDocument, error) {
		if doc.Version != *req.ExpectedVersion {
			return nil, appErrors.WithDetails(appErrors.ErrVersionMismatch,
				fmt.Sprintf("expected version %d, server has %d", *req.ExpectedVersion, doc.Version),
				appErrors.VersionDetails{ServerVersion: doc.Version})
		}

		sessions, applyErr := s.applyCommand(doc.Sessions, req)
		if applyErr != nil {
			return nil, applyErr
		}

		next := doc.Clone()
		next.Sessions = sessions
		next.Version = doc.Version + 1
		return next, nil
	})
	if err != nil {
		s.recordCommandFailure(resolved, req.Type, err)
		return nil, err
	}

	result := dto.CommandResult{Version: updated.Version, Sessions: updated.Sessions}
	s.commands.Put(key, result)
	s.invalidateViews(ctx)
	s.metrics.RecordCommand(resolved, req.Type, "applied")
	s.logger.Info("command applied",
		zap.String("scope", resolved),
		zap.String("command_id", req.CommandID),
		zap.String("type", req.Type),
		zap.Int("version", updated.Version))
	return &result, nil
}

func (s *TimetableService) applyCommand(sessions []models.Session, req dto.CommandRequest) ([]models.Session, error) {
	switch req.Type {
	case dto.CommandMoveSession:
		p := req.Payload
		if p.SessionID == "" || p.ToJour == "" || p.ToCreneau <= 0 || p.ToSalle == "" {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "move requires sessionId, toJour, toCreneau and toSalle")
		}
		if err := ValidateMove(sessions, p.SessionID, p.ToJour, p.ToCreneau, p.ToSalle); err != nil {
			return nil, err
		}
		return ApplyMove(sessions, p.SessionID, p.ToJour, p.ToCreneau, p.ToSalle), nil

	case dto.CommandDeleteSession:
		if req.Payload.SessionID == "" {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "delete requires sessionId")
		}
		if err := ValidateDelete(sessions, req.Payload.SessionID); err != nil {
			return nil, err
		}
		return ApplyDelete(sessions, req.Payload.SessionID), nil

	case dto.CommandInsertSession:
		if req.Payload.Session == nil {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "insert requires a session payload")
		}
		candidate := *req.Payload.Session
		if candidate.ID == "" {
			candidate.ID = NewSessionID("SES")
		}
		if err := ValidateInsert(sessions, candidate); err != nil {
			return nil, err
		}
		return ApplyInsert(sessions, candidate), nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnknownCommand, fmt.Sprintf("unknown command type %q", req.Type))
}

// AddSession inserts a fully-specified session outside the command flow,
// used by the admin direct-edit surface.
func (s *TimetableService) AddSession(ctx context.Context, scope string, req dto.AddSessionRequest) (*dto.AddSessionResult, error) {
	store, resolved, appErr := s.storeFor(scope)
	if appErr != nil {
		return nil, appErr
	}

	candidate := models.Session{
		ID:        req.ID,
		Formateur: req.Formateur,
		Groupe:    req.Groupe,
		Module:    req.Module,
		Jour:      NormalizeJour(req.Jour),
		Creneau:   req.Creneau,
		Salle:     req.Salle,
	}
	if candidate.ID == "" {
		candidate.ID = NewSessionID("SES")
	}

	updated, err := store.AtomicUpdate(func(doc *models.TimetableDocument) (*models.TimetableDocument, error) {
		if err := ValidateInsert(doc.Sessions, candidate); err != nil {
			return nil, err
		}
		next := doc.Clone()
		next.Sessions = ApplyInsert(doc.Sessions, candidate)
		next.Version = doc.Version + 1
		return next, nil
	})
	if err != nil {
		s.recordCommandFailure(resolved, "ADD_SESSION", err)
		return nil, err
	}

	s.invalidateViews(ctx)
	s.logger.Info("session added",
		zap.String("scope", resolved),
		zap.String("session_id", candidate.ID),
		zap.Int("version", updated.Version))
	return &dto.AddSessionResult{Version: updated.Version, Session: candidate}, nil
}

// AvailableRooms lists free and occupied physical rooms for one slot of the
// scoped document. Virtual rooms never appear.
func (s *TimetableService) AvailableRooms(ctx context.Context, scope, jour string, creneau int) (*dto.RoomAvailability, error) {
	store, _, appErr := s.storeFor(scope)
	if appErr != nil {
		return nil, appErr
	}
	if strings.TrimSpace(jour) == "" || creneau <= 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "jour and creneau are required")
	}

	cfg, err := s.configs.ReadConfig()
	if err != nil {
		return nil, err
	}
	doc, err := store.Read()
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]struct{})
	for _, session := range doc.Sessions {
		if sameSlot(jour, creneau, session) {
			occupied[session.Salle] = struct{}{}
		}
	}

	result := &dto.RoomAvailability{
		Jour:           NormalizeJour(jour),
		Creneau:        creneau,
		AvailableRooms: []string{},
		OccupiedRooms:  []string{},
	}
	for _, room := range cfg.Salles {
		if room.Type == models.RoomTypeVirtual {
			continue
		}
		if _, taken := occupied[room.ID]; taken {
			result.OccupiedRooms = append(result.OccupiedRooms, room.ID)
		} else {
			result.AvailableRooms = append(result.AvailableRooms, room.ID)
		}
	}
	return result, nil
}

func (s *TimetableService) invalidateViews(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (s *TimetableService) recordCommandFailure(scope, commandType string, err error) {
	appErr := appErrors.FromError(err)
	s.metrics.RecordCommand(scope, commandType, strings.ToLower(appErr.Code))
	if details, ok := appErr.Details.(appErrors.ConflictDetails); ok && details.Kind != "" {
		s.metrics.RecordConflict(details.Kind)
	}
}

// NewSessionID mints ids like SES_1737360000_9f2c41ab.
func NewSessionID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().Unix(), raw[:8])
}
