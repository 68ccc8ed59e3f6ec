package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	httpx "salesdash/internal/http"
	"salesdash/internal/logger"
	"salesdash/internal/services/dataset"
	"salesdash/internal/services/storage"
)

// maxUpload caps a single uploaded file
const maxUpload = 10 << 20

var (
	store    *storage.Storage
	data     *dataset.Store
	dataFile string
)

// Initialize sets up the files package with required dependencies.
// dataFile is the name the loader reads; uploading it reloads the dataset.
func Initialize(s *storage.Storage, d *dataset.Store, file string) {
	store = s
	data = d
	dataFile = file
}

// RegisterRoutes registers the data file manager routes
func RegisterRoutes(r chi.Router) {
	r.Get("/files", handleList)
	r.Post("/files/upload", handleUpload)
	r.Delete("/files/{filename}", handleDelete)
}

type listResponse struct {
	Files    []storage.FileInfo `json:"files"`
	Sealed   bool               `json:"sealed"`
	Reloaded bool               `json:"reloaded,omitempty"`
	Records  int                `json:"records,omitempty"`
}

func writeList(w http.ResponseWriter, r *http.Request, status int, extra func(*listResponse)) {
	files, err := store.List()
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	resp := listResponse{Files: files, Sealed: store.IsSealed()}
	if resp.Files == nil {
		resp.Files = []storage.FileInfo{}
	}
	if extra != nil {
		extra(&resp)
	}
	httpx.WriteJSON(w, status, resp)
}

func handleList(w http.ResponseWriter, r *http.Request) {
	writeList(w, r, http.StatusOK, nil)
}

// validName rejects anything that is not a plain file name
func validName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid filename %q", httpx.ErrBadParameter, name)
	}
	return nil
}

func handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: %v", httpx.ErrBadParameter, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: file: %v", httpx.ErrBadParameter, err))
		return
	}
	defer file.Close()

	name := header.Filename
	if err := validName(name); err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	if !storage.Sealable(name) {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: only .csv, .tsv and .json files are accepted", httpx.ErrBadParameter))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	// sealed on write when the directory is sealed
	if err := store.WriteFile(name, content, 0o644); err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	log.Info().Str("file", name).Int("bytes", len(content)).Msg("uploaded")

	if name != dataFile {
		writeList(w, r, http.StatusCreated, nil)
		return
	}
	set, err := data.Reload(r.Context())
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	writeList(w, r, http.StatusCreated, func(resp *listResponse) {
		resp.Reloaded = true
		resp.Records = set.Len()
	})
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		httpx.ErrorResponse(w, r, fmt.Errorf("%w: %v", httpx.ErrBadParameter, err))
		return
	}
	if err := validName(name); err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	if err := store.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
			return
		}
		httpx.ErrorResponse(w, r, err)
		return
	}
	log := logger.FromContext(r.Context())
	log.Info().Str("file", name).Msg("deleted")
	writeList(w, r, http.StatusOK, nil)
}
