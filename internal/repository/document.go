package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// readJSONDocument loads and decodes a JSON file. A decode failure is
// surfaced as a typed error; callers must never treat corruption as an
// empty document.
func readJSONDocument(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("document %s not found", filepath.Base(path)))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("read %s", filepath.Base(path)))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("document %s is corrupt", filepath.Base(path)))
	}
	return nil
}

// writeJSONDocument encodes v and commits it with a temp-file rename so a
// crash mid-write never truncates the previous document.
func writeJSONDocument(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("encode %s", filepath.Base(path)))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "prepare data directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("stage %s", filepath.Base(path)))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("write %s", filepath.Base(path)))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("flush %s", filepath.Base(path)))
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("commit %s", filepath.Base(path)))
	}
	return nil
}
