package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// Default document filenames inside the data directory.
const (
	OfficialTimetableFile = "timetable.json"
	DraftTimetableFile    = "nextTimetable.json"
)

// TimetableRepository stores one versioned timetable document as a JSON file.
// All access is serialised behind a per-file mutex; writes are temp+rename.
type TimetableRepository struct {
	path  string
	draft bool
	mu    sync.Mutex
	now   func() time.Time
}

// NewTimetableRepository builds a store for the named document. Draft
// documents additionally carry week_start and revision metadata.
func NewTimetableRepository(dataDir, filename string, draft bool) *TimetableRepository {
	return &TimetableRepository{
		path:  filepath.Join(dataDir, filename),
		draft: draft,
		now:   time.Now,
	}
}

// Path returns the absolute location of the backing file.
func (r *TimetableRepository) Path() string {
	return r.path
}

// IsDraft reports whether this store carries draft metadata.
func (r *TimetableRepository) IsDraft() bool {
	return r.draft
}

// EnsureExists seeds the backing file when absent. A nil seed produces an
// empty version-1 document. Existing files are left untouched.
func (r *TimetableRepository) EnsureExists(seed *models.TimetableDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stat timetable file")
	}

	doc := seed.Clone()
	if doc == nil {
		doc = &models.TimetableDocument{Version: 1, Sessions: []models.Session{}}
	}
	r.normalize(doc)
	return writeJSONDocument(r.path, doc)
}

// Read returns the current document, normalising legacy shapes. A missing
// file is seeded with an empty document first; a corrupt file is an error.
func (r *TimetableRepository) Read() (*models.TimetableDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked()
}

// Write replaces the document wholesale. Callers own version management.
func (r *TimetableRepository) Write(doc *models.TimetableDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLocked(doc)
}

// AtomicUpdate runs fn against the current document under the file lock and
// persists whatever fn returns. When fn errors nothing is written and the
// error is returned untouched, so validation failures carry through.
func (r *TimetableRepository) AtomicUpdate(fn func(doc *models.TimetableDocument) (*models.TimetableDocument, error)) (*models.TimetableDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readLocked()
	if err != nil {
		return nil, err
	}

	updated, err := fn(doc)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "atomic update returned no document")
	}

	if err := r.writeLocked(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TimetableRepository) readLocked() (*models.TimetableDocument, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			doc := &models.TimetableDocument{Version: 1, Sessions: []models.Session{}}
			r.normalize(doc)
			if err := writeJSONDocument(r.path, doc); err != nil {
				return nil, err
			}
			return doc, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read timetable file")
	}

	doc, err := decodeTimetable(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("document %s is corrupt", filepath.Base(r.path)))
	}
	r.normalize(doc)
	return doc, nil
}

func (r *TimetableRepository) writeLocked(doc *models.TimetableDocument) error {
	out := doc.Clone()
	r.normalize(out)
	if !r.draft {
		// Official documents never carry draft metadata.
		out.WeekStart = ""
		out.Revision = 0
	}
	return writeJSONDocument(r.path, out)
}

// decodeTimetable accepts both the current object shape and the legacy shape
// where the file held a bare session array.
func decodeTimetable(data []byte) (*models.TimetableDocument, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var sessions []models.Session
		if err := json.Unmarshal(data, &sessions); err != nil {
			return nil, err
		}
		return &models.TimetableDocument{Version: 1, Sessions: sessions}, nil
	}

	doc := &models.TimetableDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *TimetableRepository) normalize(doc *models.TimetableDocument) {
	if doc.Version <= 0 {
		doc.Version = 1
	}
	if doc.Sessions == nil {
		doc.Sessions = []models.Session{}
	}
	if r.draft {
		if doc.WeekStart == "" {
			doc.WeekStart = models.MondayOf(r.now().UTC()).Format(models.DateLayout)
		}
		if doc.Revision <= 0 {
			doc.Revision = 1
		}
	}
}
