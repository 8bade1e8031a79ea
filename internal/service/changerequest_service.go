package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type requestLedger interface {
	List(status models.ChangeRequestStatus, teacherID, sessionID string) ([]models.ChangeRequest, error)
	Get(id string) (*models.ChangeRequest, error)
	UpsertPendingForSession(req models.ChangeRequest) (*models.ChangeRequest, error)
	SetStatus(id string, status models.ChangeRequestStatus, decidedBy, reason string) (*models.ChangeRequest, error)
	Delete(id string) error
}

type catalogReader interface {
	ReadCatalog() (*models.Catalog, error)
}

// ChangeRequestService drives the negotiation lifecycle: teachers propose
// against the draft, admins decide, the draft moves only on approval.
type ChangeRequestService struct {
	draft    timetableStore
	requests requestLedger
	catalogs catalogReader
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewChangeRequestService wires the service.
func NewChangeRequestService(draft timetableStore, requests requestLedger, catalogs catalogReader, metrics *MetricsService, logger *zap.Logger) *ChangeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeRequestService{
		draft:    draft,
		requests: requests,
		catalogs: catalogs,
		metrics:  metrics,
		logger:   logger,
	}
}

// Submit records a teacher proposal as PENDING. MOVE, CHANGE_ROOM and
// DELETE target an existing draft session owned by the caller; INSERT mints
// a fresh session id and is allow-listed by catalog assignments.
func (s *ChangeRequestService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitChangeRequest) (*models.ChangeRequest, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unknown request type %q", req.Type))
	}

	record := models.ChangeRequest{
		Type:      req.Type,
		TeacherID: claims.UserID,
		NewData:   req.NewData,
	}

	if req.Type == models.RequestInsert {
		if err := s.prepareInsert(&record, claims); err != nil {
			return nil, err
		}
	} else {
		if req.SessionID == "" {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "sessionId is required")
		}
		doc, err := s.draft.Read()
		if err != nil {
			return nil, err
		}
		idx, findErr := findSession(doc.Sessions, req.SessionID)
		if findErr != nil {
			return nil, findErr
		}
		session := doc.Sessions[idx]
		if !claims.IsAdmin() && session.Formateur != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another formateur")
		}
		if err := validateProposalData(req.Type, req.NewData); err != nil {
			return nil, err
		}
		record.SessionID = req.SessionID
		record.OldData = models.SessionData{
			Jour:    session.Jour,
			Creneau: session.Creneau,
			Salle:   session.Salle,
		}
		if record.NewData.Jour != "" {
			record.NewData.Jour = NormalizeJour(record.NewData.Jour)
		}
	}

	stored, err := s.requests.UpsertPendingForSession(record)
	if err != nil {
		return nil, err
	}
	s.logger.Info("change request submitted",
		zap.String("request_id", stored.ID),
		zap.String("type", string(stored.Type)),
		zap.String("teacher_id", stored.TeacherID),
		zap.String("session_id", stored.SessionID))
	return stored, nil
}

func (s *ChangeRequestService) prepareInsert(record *models.ChangeRequest, claims *models.JWTClaims) error {
	data := &record.NewData
	data.Formateur = claims.UserID
	data.Jour = NormalizeJour(data.Jour)

	var missing []string
	if data.Groupe == "" {
		missing = append(missing, "groupe")
	}
	if data.Module == "" {
		missing = append(missing, "module")
	}
	if data.Jour == "" {
		missing = append(missing, "jour")
	}
	if data.Creneau <= 0 {
		missing = append(missing, "creneau")
	}
	if data.Salle == "" {
		missing = append(missing, "salle")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	catalog, err := s.catalogs.ReadCatalog()
	if err != nil {
		return err
	}
	if !claims.IsAdmin() {
		if _, allowed := catalog.ModulesForTeacher(claims.UserID)[data.Module]; !allowed {
			return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("module %s is not assigned to you", data.Module))
		}
	}

	record.SessionID = NewSessionID("TEACHER_NEW")
	return nil
}

// Cancel removes a teacher's own pending request.
func (s *ChangeRequestService) Cancel(ctx context.Context, claims *models.JWTClaims, requestID string) error {
	record, err := s.requests.Get(requestID)
	if err != nil {
		return err
	}
	if claims == nil || (!claims.IsAdmin() && record.TeacherID != claims.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "request belongs to another formateur")
	}
	if record.Status != models.StatusPending {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("change request %s is %s, not PENDING", requestID, record.Status))
	}
	return s.requests.Delete(requestID)
}

// List returns ledger records, optionally paginated.
func (s *ChangeRequestService) List(ctx context.Context, filter dto.ChangeRequestFilter) ([]models.ChangeRequest, *models.Pagination, error) {
	records, err := s.requests.List(filter.Status, filter.TeacherID, filter.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if filter.PageSize <= 0 {
		return records, nil, nil
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pagination := &models.Pagination{Page: page, PageSize: filter.PageSize, TotalCount: len(records)}
	start := (page - 1) * filter.PageSize
	if start >= len(records) {
		return []models.ChangeRequest{}, pagination, nil
	}
	end := start + filter.PageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], pagination, nil
}

// TeacherTimetable is the draft as one teacher sees it: their sessions plus
// the overlay of their own pending proposals.
func (s *ChangeRequestService) TeacherTimetable(ctx context.Context, teacherID string) (*dto.TeacherTimetableView, error) {
	doc, err := s.draft.Read()
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.List(models.StatusPending, teacherID, "")
	if err != nil {
		return nil, err
	}

	own := make([]models.Session, 0, len(doc.Sessions))
	for _, session := range doc.Sessions {
		if session.Formateur == teacherID {
			own = append(own, session)
		}
	}

	return &dto.TeacherTimetableView{
		Draft: dto.DraftMeta{
			WeekStart: doc.WeekStart,
			Revision:  doc.Revision,
			Version:   doc.Version,
		},
		Sessions:        own,
		Virtual:         BuildVirtualView(own, pending),
		PendingRequests: pending,
	}, nil
}

// AdminVirtualTimetable is the full draft with every pending proposal
// overlaid.
func (s *ChangeRequestService) AdminVirtualTimetable(ctx context.Context) (*dto.VirtualTimetableView, error) {
	doc, err := s.draft.Read()
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.List(models.StatusPending, "", "")
	if err != nil {
		return nil, err
	}

	return &dto.VirtualTimetableView{
		Draft: dto.DraftMeta{
			WeekStart: doc.WeekStart,
			Revision:  doc.Revision,
			Version:   doc.Version,
		},
		Virtual:         BuildVirtualView(doc.Sessions, pending),
		PendingRequests: pending,
	}, nil
}

// Simulate dry-runs a pending request against the current draft without
// writing anything.
func (s *ChangeRequestService) Simulate(ctx context.Context, requestID string) (*dto.SimulationResult, error) {
	record, err := s.requests.Get(requestID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("change request %s is %s, not PENDING", requestID, record.Status))
	}
	doc, err := s.draft.Read()
	if err != nil {
		return nil, err
	}
	if _, applyErr := applyChangeRequest(doc.Sessions, record); applyErr != nil {
		return nil, applyErr
	}
	return &dto.SimulationResult{
		RequestID:         requestID,
		Valid:             true,
		NewVersionWouldBe: doc.Version + 1,
	}, nil
}

// Approve re-validates the proposal inside the draft lock and commits it.
// A conflict at decision time rejects the request automatically so it does
// not linger as PENDING against a draft it can never apply to.
//
// The ledger is stamped after the timetable commit; a crash in between
// leaves an applied draft with a still-PENDING record, which the next
// publish sweep supersedes.
func (s *ChangeRequestService) Approve(ctx context.Context, requestID, decidedBy string) (*dto.ApproveResult, error) {
	record, err := s.requests.Get(requestID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("change request %s is %s, not PENDING", requestID, record.Status))
	}

	updated, err := s.draft.AtomicUpdate(func(doc *models.TimetableDocument) (*models.TimetableDocument, error) {
		sessions, applyErr := applyChangeRequest(doc.Sessions, record)
		if applyErr != nil {
			return nil, applyErr
		}
		next := doc.Clone()
		next.Sessions = sessions
		next.Version = doc.Version + 1
		return next, nil
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrConstraintConflict.Code || appErr.Code == appErrors.ErrNotFound.Code {
			if _, rejectErr := s.requests.SetStatus(requestID, models.StatusRejected, decidedBy, appErr.Message); rejectErr != nil {
				s.logger.Error("auto-reject failed", zap.String("request_id", requestID), zap.Error(rejectErr))
			} else {
				s.metrics.RecordDecision(string(models.StatusRejected))
			}
			if details, ok := appErr.Details.(appErrors.ConflictDetails); ok && details.Kind != "" {
				s.metrics.RecordConflict(details.Kind)
			}
		}
		return nil, err
	}

	decided, err := s.requests.SetStatus(requestID, models.StatusApproved, decidedBy, "")
	if err != nil {
		s.logger.Error("draft committed but ledger stamp failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordDecision(string(models.StatusApproved))
	s.logger.Info("change request approved",
		zap.String("request_id", requestID),
		zap.String("decided_by", decidedBy),
		zap.Int("version", updated.Version))
	return &dto.ApproveResult{Version: updated.Version, Sessions: updated.Sessions, Request: decided}, nil
}

// Reject stamps a pending request REJECTED.
func (s *ChangeRequestService) Reject(ctx context.Context, requestID, decidedBy, reason string) (*models.ChangeRequest, error) {
	if reason == "" {
		reason = "Rejected by admin"
	}
	decided, err := s.requests.SetStatus(requestID, models.StatusRejected, decidedBy, reason)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDecision(string(models.StatusRejected))
	return decided, nil
}

// validateProposalData enforces per-type required fields at submit time.
func validateProposalData(reqType models.ChangeRequestType, data models.SessionData) *appErrors.Error {
	switch reqType {
	case models.RequestMove:
		if data.Jour == "" || data.Creneau <= 0 {
			return appErrors.Clone(appErrors.ErrBadRequest, "move requires newData.jour and newData.creneau")
		}
	case models.RequestChangeRoom:
		if data.Salle == "" {
			return appErrors.Clone(appErrors.ErrBadRequest, "room change requires newData.salle")
		}
	}
	return nil
}

// applyChangeRequest projects a proposal onto the session list, validating
// with the same rules the command surface uses.
func applyChangeRequest(sessions []models.Session, record *models.ChangeRequest) ([]models.Session, error) {
	switch record.Type {
	case models.RequestMove, models.RequestChangeRoom:
		idx, err := findSession(sessions, record.SessionID)
		if err != nil {
			return nil, err
		}
		current := sessions[idx]
		toJour := current.Jour
		toCreneau := current.Creneau
		toSalle := current.Salle
		if record.NewData.Jour != "" {
			toJour = record.NewData.Jour
		}
		if record.NewData.Creneau > 0 {
			toCreneau = record.NewData.Creneau
		}
		if record.NewData.Salle != "" {
			toSalle = record.NewData.Salle
		}
		if err := ValidateMove(sessions, record.SessionID, toJour, toCreneau, toSalle); err != nil {
			return nil, err
		}
		return ApplyMove(sessions, record.SessionID, toJour, toCreneau, toSalle), nil

	case models.RequestDelete:
		if err := ValidateDelete(sessions, record.SessionID); err != nil {
			return nil, err
		}
		return ApplyDelete(sessions, record.SessionID), nil

	case models.RequestInsert:
		candidate := models.Session{
			ID:        record.SessionID,
			Formateur: record.NewData.Formateur,
			Groupe:    record.NewData.Groupe,
			Module:    record.NewData.Module,
			Jour:      record.NewData.Jour,
			Creneau:   record.NewData.Creneau,
			Salle:     record.NewData.Salle,
		}
		if err := ValidateInsert(sessions, candidate); err != nil {
			return nil, err
		}
		return ApplyInsert(sessions, candidate), nil
	}
	return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unknown request type %q", record.Type))
}
