package backup

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	httpx "salesdash/internal/http"
	"salesdash/internal/logger"
	"salesdash/internal/services/dataset"
	"salesdash/internal/services/storage"
)

// maxRestore caps an uploaded backup archive
const maxRestore = 50 << 20

// maxEntry caps the decompressed size of one archive entry
var maxEntry int64 = maxRestore

var (
	store *storage.Storage
	data  *dataset.Store
)

// Initialize sets up the backup package with required dependencies
func Initialize(s *storage.Storage, d *dataset.Store) {
	store = s
	data = d
}

// HandleBackup streams every data file as a zip. Sealed files are written
// in plaintext so the archive restores into any directory.
func HandleBackup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	files, err := store.List()
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	// build in memory so a read failure can still produce an error response
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		content, err := store.ReadFile(f.Name)
		if err != nil {
			httpx.ErrorResponse(w, r, err)
			return
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.ModTime})
		if err != nil {
			httpx.ErrorResponse(w, r, err)
			return
		}
		if _, err := fw.Write(content); err != nil {
			httpx.ErrorResponse(w, r, err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	filename := fmt.Sprintf("salesdash_backup_%s.zip", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write(buf.Bytes())
	log.Info().Int("files", len(files)).Int("bytes", buf.Len()).Msg("backup created")
}

// HandleRestore unpacks the .csv, .tsv and .json entries of an uploaded zip
// into the data directory and reloads the dataset
func HandleRestore(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxRestore); err != nil {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: %v", httpx.ErrBadParameter, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: file: %v", httpx.ErrBadParameter, err))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: only zip backups are accepted", httpx.ErrBadParameter))
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: invalid zip: %v", httpx.ErrBadParameter, err))
		return
	}

	var restored []string
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		// base name only, so entries cannot escape the data directory
		name := filepath.Base(zf.Name)
		if strings.HasPrefix(name, ".") || !storage.Sealable(name) {
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			log.Warn().Err(err).Str("entry", zf.Name).Msg("skipping entry")
			continue
		}
		body, err := io.ReadAll(io.LimitReader(rc, maxEntry+1))
		rc.Close()
		if err != nil {
			log.Warn().Err(err).Str("entry", zf.Name).Msg("skipping entry")
			continue
		}
		if int64(len(body)) > maxEntry {
			log.Warn().Str("entry", zf.Name).Int64("limit", maxEntry).Msg("skipping oversized entry")
			continue
		}
		if err := store.WriteFile(name, body, 0o644); err != nil {
			httpx.ErrorResponse(w, r, err)
			return
		}
		restored = append(restored, name)
	}

	if len(restored) == 0 {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: no data files found in backup", httpx.ErrBadParameter))
		return
	}
	log.Info().Strs("files", restored).Msg("restore complete")

	resp := map[string]any{"restored": restored}
	if set, err := data.Reload(r.Context()); err != nil {
		log.Error().Err(err).Msg("reload after restore failed")
		resp["reload_error"] = err.Error()
	} else {
		resp["records"] = set.Len()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
