package backup

import (
	"archive/zip"
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"salesdash/internal/logger"
	"salesdash/internal/services/dataloader"
	"salesdash/internal/services/dataset"
	"salesdash/internal/services/storage"
	"salesdash/internal/testutil"
)

func setup(t *testing.T) (*testutil.TestServer, *storage.Storage) {
	t.Helper()
	s, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	loader := dataloader.New(dataloader.NewCSVSource(s, "sales.csv", "utf-8"), logger.Nop())
	Initialize(s, dataset.New(loader))

	r := chi.NewRouter()
	r.Get("/api/backup", HandleBackup)
	r.Post("/api/restore", HandleRestore)
	return testutil.NewTestServer(t, r), s
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(content))
	}
	zw.Close()
	return buf.Bytes()
}

func postArchive(t *testing.T, ts *testutil.TestServer, filename string, archive []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", filename)
	fw.Write(archive)
	mw.Close()
	return ts.POST("/api/restore", mw.FormDataContentType(), &buf)
}

func TestBackupIsPlaintext(t *testing.T) {
	ts, s := setup(t)
	if err := s.WriteFile("sales.csv", []byte(testutil.SampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Seal("testpassword123"); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	resp := ts.GET("/api/backup")
	body := testutil.AssertResponse(t, resp).
		StatusOK().
		ContentType("application/zip").
		Header("Content-Disposition", "salesdash_backup_").
		Body()

	zr, err := zip.NewReader(bytes.NewReader([]byte(body)), int64(len(body)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "sales.csv" {
		t.Fatalf("entries = %v", zr.File)
	}
	rc, _ := zr.File[0].Open()
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != testutil.SampleCSV {
		t.Error("backup entry is not the plaintext file")
	}
}

func TestRestore(t *testing.T) {
	ts, _ := setup(t)

	archive := zipOf(t, map[string]string{
		"nested/sales.csv": testutil.SampleCSV,
		"../evil.sh":       "rm -rf /",
		".sealed":          "sealed\n",
	})
	testutil.AssertResponse(t, postArchive(t, ts, "backup.zip", archive)).
		StatusOK().
		Contains(`"restored":["sales.csv"]`, `"records":8`)

	if data.Snapshot().Len() != 8 {
		t.Errorf("snapshot has %d records", data.Snapshot().Len())
	}
}

func TestRestoreSkipsOversizedEntries(t *testing.T) {
	ts, s := setup(t)

	defer func(n int64) { maxEntry = n }(maxEntry)
	maxEntry = int64(len(testutil.SampleCSV))

	archive := zipOf(t, map[string]string{
		"sales.csv": testutil.SampleCSV,
		"huge.csv":  strings.Repeat("x", int(maxEntry)+1),
	})
	testutil.AssertResponse(t, postArchive(t, ts, "backup.zip", archive)).
		StatusOK().
		Contains(`"restored":["sales.csv"]`)

	if _, err := s.ReadFile("huge.csv"); err == nil {
		t.Error("oversized entry was written")
	}
}

func TestRestoreRejects(t *testing.T) {
	ts, _ := setup(t)

	testutil.AssertResponse(t, postArchive(t, ts, "backup.tar", []byte("x"))).
		Status(http.StatusBadRequest)
	testutil.AssertResponse(t, postArchive(t, ts, "backup.zip", []byte("not a zip"))).
		Status(http.StatusBadRequest)
	testutil.AssertResponse(t, postArchive(t, ts, "backup.zip", zipOf(t, map[string]string{"a.txt": "x"}))).
		Status(http.StatusBadRequest).
		Contains("no data files")
}
