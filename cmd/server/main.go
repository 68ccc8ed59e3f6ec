package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"salesdash/internal/config"
	"salesdash/internal/handlers/backup"
	"salesdash/internal/handlers/dashboard"
	"salesdash/internal/handlers/files"
	httpx "salesdash/internal/http"
	"salesdash/internal/logger"
	"salesdash/internal/services/dataloader"
	"salesdash/internal/services/dataset"
	"salesdash/internal/services/storage"
	"salesdash/internal/services/views"
	"salesdash/internal/version"
)

var (
	cfg   *config.Config
	log   zerolog.Logger
	store *storage.Storage
	data  *dataset.Store
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	seal := flag.Bool("seal", false, "Encrypt the data directory with a password and exit")
	unseal := flag.Bool("unseal", false, "Decrypt the data directory permanently and exit")
	importSQLite := flag.Bool("import-sqlite", false, "Load the CSV data file and write it to the SQLite database, then exit")
	flag.Parse()

	info := version.Get()
	if *showVersion {
		fmt.Println(info)
		return
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log = logger.New(cfg.Debug)
	if w := info.Warning(); w != "" {
		log.Warn().Msg(w)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("could not create data directory")
	}
	store, err = storage.New(cfg.DataDirectory)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDirectory).Msg("could not open data directory")
	}

	switch {
	case *seal:
		runSeal()
		return
	case *unseal:
		runUnseal()
		return
	}

	if store.IsSealed() {
		if err := unlock(); err != nil {
			log.Fatal().Err(err).Msg("could not unlock data directory")
		}
	}

	if *importSQLite {
		runImport()
		return
	}

	if err := SetupDependencies(cfg); err != nil {
		log.Fatal().Err(err).Msg("setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := data.Reload(logger.WithContext(ctx, log)); err != nil {
		// serve an empty snapshot; POST /dashboard/reload retries
		log.Error().Err(err).Msg("initial load failed")
	} else {
		set := data.Snapshot()
		log.Info().Str("source", set.Source).Int("records", set.Len()).Int("rejected", set.Rejected).Msg("dataset loaded")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("version", info.Version).
		Str("source", string(cfg.Source)).
		Str("data_file", cfg.DataPath()).
		Msg("sales dashboard starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

// newSource picks the row source named by the config
func newSource(c *config.Config) dataloader.RowSource {
	if c.Source == config.SourceSQLite {
		return dataloader.NewSQLiteSource(c.SQLitePath, c.SQLiteTable)
	}
	return dataloader.NewCSVSource(store, c.DataFile, c.CSVEncoding)
}

// SetupDependencies wires the loader, the snapshot store and the handlers.
// It does not load data.
func SetupDependencies(c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if store == nil {
		s, err := storage.New(c.DataDirectory)
		if err != nil {
			return err
		}
		store = s
	}
	cfg = c

	loader := dataloader.New(newSource(c), log)
	data = dataset.New(loader)
	dashboard.Initialize(data, views.Settings{
		MovingAverageWindow: c.MovingAverageWindow,
		TopN:                c.TopN,
	})
	files.Initialize(store, data, c.DataFile)
	backup.Initialize(store, data)
	return nil
}

// SetupRouter builds the HTTP routes
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard/options", http.StatusTemporaryRedirect)
	})
	r.Get("/api/health", handleHealth)
	r.Get("/api/backup", backup.HandleBackup)
	r.Post("/api/restore", backup.HandleRestore)

	dashboard.RegisterRoutes(r)
	files.RegisterRoutes(r)
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	set := data.Snapshot()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  version.Get(),
		"snapshot": set.ID,
		"records":  set.Len(),
		"sealed":   store.IsSealed(),
	})
}

// unlock uses SALES_PASSWORD when set and prompts on the terminal otherwise
func unlock() error {
	password := cfg.Password
	if password == "" {
		p, err := readPassword("Data directory password: ")
		if err != nil {
			return err
		}
		password = p
	}
	return store.Unlock(password)
}

func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("data directory is sealed: set SALES_PASSWORD or run from a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func runSeal() {
	if store.IsSealed() {
		log.Fatal().Err(storage.ErrAlreadySealed).Send()
	}
	password := cfg.Password
	if password == "" {
		p, err := readPassword("New password: ")
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		if p != confirm {
			log.Fatal().Msg("passwords do not match")
		}
		password = p
	}
	if err := store.Seal(password); err != nil {
		log.Fatal().Err(err).Msg("seal failed")
	}
	log.Info().Str("dir", store.Dir()).Msg("data directory sealed")
}

func runUnseal() {
	password := cfg.Password
	if password == "" {
		p, err := readPassword("Data directory password: ")
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		password = p
	}
	if err := store.Unseal(password); err != nil {
		log.Fatal().Err(err).Msg("unseal failed")
	}
	log.Info().Str("dir", store.Dir()).Msg("data directory unsealed")
}

// runImport normalizes the CSV data file and stores the records in SQLite
func runImport() {
	ctx := logger.WithContext(context.Background(), log)
	loader := dataloader.New(dataloader.NewCSVSource(store, cfg.DataFile, cfg.CSVEncoding), log)
	set, err := loader.LoadData(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	if err := dataloader.WriteSQLite(ctx, cfg.SQLitePath, cfg.SQLiteTable, set.Records()); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().
		Str("db", cfg.SQLitePath).
		Str("table", cfg.SQLiteTable).
		Int("records", set.Len()).
		Int("rejected", set.Rejected).
		Msg("imported")
}
