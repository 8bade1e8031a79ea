package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

func TestTimetableRepositorySeedsMissingFile(t *testing.T) {
	dir := t.TempDir()
	repo := NewTimetableRepository(dir, OfficialTimetableFile, false)

	doc, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, 1, doc.Version)
	require.Empty(t, doc.Sessions)

	// The seed must have been persisted.
	_, statErr := os.Stat(repo.Path())
	require.NoError(t, statErr)
}

func TestTimetableRepositoryDraftBackfillsMetadata(t *testing.T) {
	dir := t.TempDir()
	repo := NewTimetableRepository(dir, DraftTimetableFile, true)
	require.NoError(t, repo.EnsureExists(nil))

	doc, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, 1, doc.Revision)
	require.NotEmpty(t, doc.WeekStart)

	parsed, perr := time.Parse(models.DateLayout, doc.WeekStart)
	require.NoError(t, perr)
	require.Equal(t, parsed, models.MondayOf(parsed))
}

func TestTimetableRepositoryAcceptsLegacyArray(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"sessionId":"S1","formateur":"F1","groupe":"G1","module":"M1","jour":"lundi","creneau":1,"salle":"A1"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, OfficialTimetableFile), []byte(raw), 0o644))

	repo := NewTimetableRepository(dir, OfficialTimetableFile, false)
	doc, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, 1, doc.Version)
	require.Len(t, doc.Sessions, 1)
	require.Equal(t, "S1", doc.Sessions[0].ID)
}

func TestTimetableRepositoryCorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, OfficialTimetableFile), []byte("{not json"), 0o644))

	repo := NewTimetableRepository(dir, OfficialTimetableFile, false)
	_, err := repo.Read()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	require.Contains(t, appErr.Message, "corrupt")

	// The corrupt file must not be silently replaced.
	data, readErr := os.ReadFile(filepath.Join(dir, OfficialTimetableFile))
	require.NoError(t, readErr)
	require.Equal(t, "{not json", string(data))
}

func TestTimetableRepositoryAtomicUpdatePersists(t *testing.T) {
	dir := t.TempDir()
	repo := NewTimetableRepository(dir, OfficialTimetableFile, false)

	updated, err := repo.AtomicUpdate(func(doc *models.TimetableDocument) (*models.TimetableDocument, error) {
		doc.Version++
		doc.Sessions = append(doc.Sessions, models.Session{
			ID: "S1", Formateur: "F1", Groupe: "G1", Module: "M1", Jour: "lundi", Creneau: 1, Salle: "A1",
		})
		return doc, nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Version)

	reread, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, 2, reread.Version)
	require.Len(t, reread.Sessions, 1)
}

func TestTimetableRepositoryAtomicUpdateAbortsOnError(t *testing.T) {
	dir := t.TempDir()
	repo := NewTimetableRepository(dir, OfficialTimetableFile, false)
	require.NoError(t, repo.EnsureExists(&models.TimetableDocument{Version: 7, Sessions: []models.Session{}}))

	_, err := repo.AtomicUpdate(func(doc *models.TimetableDocument) (*models.TimetableDocument, error) {
		doc.Version = 99
		return nil, appErrors.Clone(appErrors.ErrConstraintConflict, "refused")
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConstraintConflict.Code, appErrors.FromError(err).Code)

	doc, readErr := repo.Read()
	require.NoError(t, readErr)
	require.Equal(t, 7, doc.Version)
}

func TestTimetableRepositoryOfficialStripsDraftMetadata(t *testing.T) {
	dir := t.TempDir()
	repo := NewTimetableRepository(dir, OfficialTimetableFile, false)
	require.NoError(t, repo.Write(&models.TimetableDocument{
		Version:   3,
		WeekStart: "2025-01-20",
		Revision:  4,
		Sessions:  []models.Session{},
	}))

	raw, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.NotContains(t, onDisk, "week_start")
	require.NotContains(t, onDisk, "revision")

	doc, err := repo.Read()
	require.NoError(t, err)
	require.Equal(t, 3, doc.Version)
	require.Empty(t, doc.WeekStart)
}
