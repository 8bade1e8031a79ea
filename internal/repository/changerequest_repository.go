package repository

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// ChangeRequestFile is the default ledger filename inside the data directory.
const ChangeRequestFile = "change_requests.json"

// SupersededByNewerReason stamps records displaced by a fresh proposal.
const SupersededByNewerReason = "Superseded by a newer proposal"

// ChangeRequestRepository is the append-mostly ledger of proposals. One
// process-wide mutex guards the whole file; every mutation rewrites it
// atomically.
type ChangeRequestRepository struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewChangeRequestRepository builds a ledger store rooted at dataDir.
func NewChangeRequestRepository(dataDir string) *ChangeRequestRepository {
	return &ChangeRequestRepository{
		path: filepath.Join(dataDir, ChangeRequestFile),
		now:  time.Now,
	}
}

// Path returns the absolute location of the backing file.
func (r *ChangeRequestRepository) Path() string {
	return r.path
}

// List returns ledger records newest-first, optionally filtered.
func (r *ChangeRequestRepository) List(status models.ChangeRequestStatus, teacherID, sessionID string) ([]models.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.loadLocked()
	if err != nil {
		return nil, err
	}

	out := make([]models.ChangeRequest, 0, len(ledger.Requests))
	for _, req := range ledger.Requests {
		if status != "" && req.Status != status {
			continue
		}
		if teacherID != "" && req.TeacherID != teacherID {
			continue
		}
		if sessionID != "" && req.SessionID != sessionID {
			continue
		}
		out = append(out, req)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

// Get returns one record by id.
func (r *ChangeRequestRepository) Get(id string) (*models.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.loadLocked()
	if err != nil {
		return nil, err
	}
	for i := range ledger.Requests {
		if ledger.Requests[i].ID == id {
			req := ledger.Requests[i]
			return &req, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("change request %s not found", id))
}

// UpsertPendingForSession keeps at most one PENDING record per session.
// Superseding types stamp the older record SUPERSEDED and append a fresh
// one, preserving the audit trail; other types overwrite the existing
// record in place, keeping its id and clearing any decision fields.
func (r *ChangeRequestRepository) UpsertPendingForSession(req models.ChangeRequest) (*models.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.loadLocked()
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if req.Type.Supersedes() {
		for i := range ledger.Requests {
			old := &ledger.Requests[i]
			if old.SessionID == req.SessionID && old.Status == models.StatusPending {
				decided := now
				old.Status = models.StatusSuperseded
				old.DecidedAt = &decided
				old.DecidedBy = req.TeacherID
				old.DecisionReason = SupersededByNewerReason
			}
		}
	} else if req.SessionID != "" {
		for i := range ledger.Requests {
			old := &ledger.Requests[i]
			if old.SessionID != req.SessionID || old.Status != models.StatusPending {
				continue
			}
			old.Type = req.Type
			old.TeacherID = req.TeacherID
			old.OldData = req.OldData
			old.NewData = req.NewData
			old.SubmittedAt = now
			old.DecidedAt = nil
			old.DecidedBy = ""
			old.DecisionReason = ""
			if err := writeJSONDocument(r.path, ledger); err != nil {
				return nil, err
			}
			updated := *old
			return &updated, nil
		}
	}

	req.ID = r.newID(now)
	req.Status = models.StatusPending
	req.SubmittedAt = now
	req.DecidedAt = nil
	req.DecidedBy = ""
	req.DecisionReason = ""
	ledger.Requests = append(ledger.Requests, req)

	if err := writeJSONDocument(r.path, ledger); err != nil {
		return nil, err
	}
	return &req, nil
}

// SetStatus moves a PENDING record to a terminal state and stamps the
// decision metadata. Deciding an already-decided record fails.
func (r *ChangeRequestRepository) SetStatus(id string, status models.ChangeRequestStatus, decidedBy, reason string) (*models.ChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.loadLocked()
	if err != nil {
		return nil, err
	}

	for i := range ledger.Requests {
		if ledger.Requests[i].ID != id {
			continue
		}
		if ledger.Requests[i].Status != models.StatusPending {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus,
				fmt.Sprintf("change request %s is %s, not PENDING", id, ledger.Requests[i].Status))
		}
		decided := r.now().UTC()
		ledger.Requests[i].Status = status
		ledger.Requests[i].DecidedAt = &decided
		ledger.Requests[i].DecidedBy = decidedBy
		ledger.Requests[i].DecisionReason = reason
		if err := writeJSONDocument(r.path, ledger); err != nil {
			return nil, err
		}
		req := ledger.Requests[i]
		return &req, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("change request %s not found", id))
}

// Delete removes a record outright. Used by teacher cancellation.
func (r *ChangeRequestRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.loadLocked()
	if err != nil {
		return err
	}

	for i := range ledger.Requests {
		if ledger.Requests[i].ID == id {
			ledger.Requests = append(ledger.Requests[:i], ledger.Requests[i+1:]...)
			return writeJSONDocument(r.path, ledger)
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("change request %s not found", id))
}

// SupersedeAllPending stamps every PENDING record SUPERSEDED and returns how
// many were touched. Used when a cycle is published.
func (r *ChangeRequestRepository) SupersedeAllPending(decidedBy, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.loadLocked()
	if err != nil {
		return 0, err
	}

	count := 0
	now := r.now().UTC()
	for i := range ledger.Requests {
		if ledger.Requests[i].Status != models.StatusPending {
			continue
		}
		decided := now
		ledger.Requests[i].Status = models.StatusSuperseded
		ledger.Requests[i].DecidedAt = &decided
		ledger.Requests[i].DecidedBy = decidedBy
		ledger.Requests[i].DecisionReason = reason
		count++
	}
	if count == 0 {
		return 0, nil
	}
	if err := writeJSONDocument(r.path, ledger); err != nil {
		return 0, err
	}
	return count, nil
}

// Snapshot returns the raw ledger for backup purposes.
func (r *ChangeRequestRepository) Snapshot() (*models.ChangeRequestLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Reset empties the ledger for the next cycle.
func (r *ChangeRequestRepository) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSONDocument(r.path, &models.ChangeRequestLedger{Requests: []models.ChangeRequest{}})
}

func (r *ChangeRequestRepository) loadLocked() (*models.ChangeRequestLedger, error) {
	ledger := &models.ChangeRequestLedger{}
	if err := readJSONDocument(r.path, ledger); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return &models.ChangeRequestLedger{Requests: []models.ChangeRequest{}}, nil
		}
		return nil, err
	}
	if ledger.Requests == nil {
		ledger.Requests = []models.ChangeRequest{}
	}
	return ledger, nil
}

// newID yields time-sortable ids like CR_20250120_9f2c41ab7d.
func (r *ChangeRequestRepository) newID(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CR_%s_%s", now.Format("20060102"), raw[:10])
}
