package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/repositories"
	"github.com/desertthunder/sortifyr/internal/server"
	"github.com/desertthunder/sortifyr/internal/services"
	"github.com/desertthunder/sortifyr/internal/shared"
	tu "github.com/desertthunder/sortifyr/internal/testing"
)

func sampleSeed() *repositories.SeedData {
	return &repositories.SeedData{
		Directories: []models.Directory{
			{
				ID:   1,
				Name: "Genres",
				Children: []models.Directory{
					{ID: 2, Name: "Rock", Playlists: []models.Playlist{{ID: 10, SpotifyID: "sp-riffs", Name: "Riffs"}}},
				},
			},
			{ID: 3, Name: "Moods", Playlists: []models.Playlist{{ID: 11, SpotifyID: "sp-chill", Name: "Chill"}}},
		},
		Playlists: []models.Playlist{{ID: 12, SpotifyID: "sp-unsorted", Name: "Unsorted"}},
		Links:     []models.Link{{SourceDirectoryID: 2, TargetPlaylistID: 12}},
	}
}

// setupBackend serves a seeded in-memory database and returns a runner talking to it.
func setupBackend(t *testing.T) (*Runner, *bytes.Buffer, *services.Client) {
	t.Helper()
	return startBackend(t, func(h http.Handler) http.Handler { return h })
}

// setupCountingBackend is setupBackend with a counter of GET /api/link requests.
func setupCountingBackend(t *testing.T) (*Runner, *bytes.Buffer, *atomic.Int32) {
	t.Helper()
	reads := &atomic.Int32{}
	runner, output, _ := startBackend(t, func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodGet && req.URL.Path == "/api/link" {
				reads.Add(1)
			}
			h.ServeHTTP(w, req)
		})
	})
	return runner, output, reads
}

func startBackend(t *testing.T, wrap func(http.Handler) http.Handler) (*Runner, *bytes.Buffer, *services.Client) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := repositories.Seed(context.Background(), db, sampleSeed()); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	srv := httptest.NewServer(wrap(server.New(db, "", log.New(io.Discard))))
	t.Cleanup(srv.Close)

	client := services.NewClient(srv.URL, srv.Client())
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{API: client, Logger: log.New(io.Discard), Output: output})
	return runner, output, client
}

func run(r *Runner, args ...string) error {
	return r.app().Run(context.Background(), append([]string{"sortifyr"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			svc := &tu.MockService{}
			api := services.NewClient("http://example.test", nil)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Service:    svc,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.service != svc {
				t.Error("expected service to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.engine == nil {
				t.Error("expected engine to be created")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil service uses the API client", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.api == nil {
				t.Fatal("expected API client to be created from config")
			}
			if runner.service != runner.api {
				t.Error("expected service to default to the API client")
			}
		})
	})

	t.Run("SetLogger", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		engine := runner.engine
		logger := log.New(io.Discard)

		runner.SetLogger(logger)
		if runner.logger != logger {
			t.Error("expected logger to be replaced")
		}
		if runner.engine == engine {
			t.Error("expected engine to be rebuilt with the new logger")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("status lines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.success("saved %d", 2)
			runner.failure("broken")
			result := output.String()
			if !strings.Contains(result, "saved 2\n") || !strings.Contains(result, "broken\n") {
				t.Errorf("expected status lines, got %q", result)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, name := range []string{"setup", "serve", "api", "links", "edit"} {
			if !names[name] {
				t.Errorf("expected %q to be registered", name)
			}
		}
	})
}

func TestLinksCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		runner, output, _ := setupBackend(t)

		if err := run(runner, "links", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		result := output.String()
		if !strings.Contains(result, "Links (1)") {
			t.Errorf("expected header, got %q", result)
		}
		if !strings.Contains(result, "directory Rock  →  playlist Unsorted") {
			t.Errorf("expected named link, got %q", result)
		}
	})

	t.Run("list json", func(t *testing.T) {
		runner, output, _ := setupBackend(t)

		if err := run(runner, "links", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var links []models.Link
		if err := json.Unmarshal(output.Bytes(), &links); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if len(links) != 1 || links[0].SourceDirectoryID != 2 || links[0].TargetPlaylistID != 12 {
			t.Errorf("unexpected links %+v", links)
		}
	})

	t.Run("tree", func(t *testing.T) {
		runner, output, _ := setupBackend(t)

		if err := run(runner, "links", "tree"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, s := range []string{"Library", "Rock/", "Unassigned", "Unsorted"} {
			if !strings.Contains(output.String(), s) {
				t.Errorf("expected tree to contain %q, got %q", s, output.String())
			}
		}
	})

	t.Run("add", func(t *testing.T) {
		runner, output, client := setupBackend(t)

		if err := run(runner, "links", "add", "--from", "directory:3", "--to", "playlist:10"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Linked Moods → Riffs (2 links saved)") {
			t.Errorf("expected link confirmation, got %q", output.String())
		}

		links, err := client.GetLinks(context.Background())
		if err != nil {
			t.Fatalf("failed to fetch links: %v", err)
		}
		if len(links) != 2 {
			t.Errorf("expected 2 stored links, got %d", len(links))
		}
	})

	t.Run("add reads links once", func(t *testing.T) {
		runner, _, reads := setupCountingBackend(t)

		if err := run(runner, "links", "add", "--from", "directory:3", "--to", "playlist:10"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := reads.Load(); got != 1 {
			t.Errorf("expected 1 link fetch, got %d", got)
		}

		reads.Store(0)
		if err := run(runner, "links", "remove", "--from", "directory:3", "--to", "playlist:10"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := reads.Load(); got != 1 {
			t.Errorf("expected 1 link fetch on remove, got %d", got)
		}
	})

	t.Run("add existing", func(t *testing.T) {
		runner, output, _ := setupBackend(t)

		if err := run(runner, "links", "add", "--from", "dir:2", "--to", "pl:12"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Link already exists") {
			t.Errorf("expected duplicate warning, got %q", output.String())
		}
	})

	t.Run("add unknown entity", func(t *testing.T) {
		runner, _, client := setupBackend(t)

		err := run(runner, "links", "add", "--from", "directory:99", "--to", "playlist:10")
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}

		links, _ := client.GetLinks(context.Background())
		if len(links) != 1 {
			t.Errorf("expected nothing to be saved, got %d links", len(links))
		}
	})

	t.Run("add self", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "links", "add", "--from", "playlist:10", "--to", "playlist:10")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("add malformed ref", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "links", "add", "--from", "rock", "--to", "playlist:10")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		runner, output, client := setupBackend(t)

		if err := run(runner, "links", "remove", "--from", "directory:2", "--to", "playlist:12"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "0 links left") {
			t.Errorf("expected removal confirmation, got %q", output.String())
		}

		links, _ := client.GetLinks(context.Background())
		if len(links) != 0 {
			t.Errorf("expected no stored links, got %d", len(links))
		}
	})

	t.Run("remove missing", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "links", "rm", "--from", "directory:3", "--to", "playlist:12")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("plan", func(t *testing.T) {
		runner, output, _ := setupBackend(t)

		if err := run(runner, "links", "plan"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		result := output.String()
		if !strings.Contains(result, "1 route from 1 link") {
			t.Errorf("expected plan header, got %q", result)
		}
		if !strings.Contains(result, "Unsorted\n  ← Riffs") {
			t.Errorf("expected Riffs to feed Unsorted, got %q", result)
		}
	})

	t.Run("export single format", func(t *testing.T) {
		runner, output, _ := setupBackend(t)
		path := filepath.Join(t.TempDir(), "out", "links.md")

		if err := run(runner, "links", "export", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "# Links") {
			t.Errorf("expected markdown export, got %q", content)
		}
		if !strings.Contains(output.String(), "Exported 1 link to") {
			t.Errorf("expected export confirmation, got %q", output.String())
		}
	})

	t.Run("export all formats", func(t *testing.T) {
		runner, _, _ := setupBackend(t)
		dir := filepath.Join(t.TempDir(), "bulk")

		if err := run(runner, "links", "export", "--all", "--output", dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "links.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "links.svg"))
	})

	t.Run("export unknown format", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "links", "export", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("clipboard with several formats", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "links", "export", "--all", "--clipboard")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("render", func(t *testing.T) {
		runner, _, _ := setupBackend(t)
		path := filepath.Join(t.TempDir(), "diagram.svg")

		if err := run(runner, "links", "render", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "<svg") || !strings.Contains(content, "<path") {
			t.Errorf("expected diagram with a curve, got %q", content)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		svc := &tu.MockService{GetErr: errors.New("offline")}
		runner := NewRunner(RunnerOpts{Service: svc, Logger: log.New(io.Discard), Output: &bytes.Buffer{}})

		err := run(runner, "links", "list")
		if err == nil || !strings.Contains(err.Error(), "offline") {
			t.Errorf("expected backend error, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		runner, output, _ := setupBackend(t)

		if err := run(runner, "api", "get", "--json", "/api/health"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result := output.String(); result != `{"status":"ok"}`+"\n" {
			t.Errorf("expected health response, got %q", result)
		}
	})

	t.Run("get error status", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "api", "get", "/api/missing")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("post invalid JSON", func(t *testing.T) {
		runner, _, _ := setupBackend(t)

		err := run(runner, "api", "post", "--data", "{nope", "/api/link/sync")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("dump round trips through seed", func(t *testing.T) {
		runner, output, _ := setupBackend(t)
		path := filepath.Join(t.TempDir(), "dump.json")

		if err := run(runner, "api", "dump", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var dump repositories.SeedData
		if err := json.Unmarshal(output.Bytes(), &dump); err != nil {
			t.Fatalf("expected JSON dump, got %v", err)
		}
		if len(dump.Directories) != 2 || len(dump.Playlists) != 3 || len(dump.Links) != 1 {
			t.Errorf("unexpected dump sizes %d/%d/%d", len(dump.Directories), len(dump.Playlists), len(dump.Links))
		}

		seed, err := repositories.LoadSeed(path)
		if err != nil {
			t.Fatalf("expected saved dump to load as a seed, got %v", err)
		}
		if len(seed.Links) != 1 {
			t.Errorf("expected 1 link in saved dump, got %d", len(seed.Links))
		}
	})
}

func writeTestConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.toml")
	dbPath = filepath.Join(dir, "test.db")

	content := "[database]\npath = \"" + filepath.ToSlash(dbPath) + "\"\nmax_open_conns = 1\nmax_idle_conns = 1\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath, dbPath
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: &bytes.Buffer{}})

		if err := run(runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected generated config to load, got %v", err)
		}
		if err := run(runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when the config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		configPath, dbPath := writeTestConfig(t)
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: &bytes.Buffer{}})

		if err := run(runner, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, dbPath)
	})

	t.Run("seed", func(t *testing.T) {
		configPath, dbPath := writeTestConfig(t)
		seedPath := filepath.Join(t.TempDir(), "seed.json")

		data, err := shared.MarshalJSON(sampleSeed(), true)
		if err != nil {
			t.Fatalf("failed to marshal seed: %v", err)
		}
		if err := os.WriteFile(seedPath, data, 0644); err != nil {
			t.Fatalf("failed to write seed: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: output})

		if err := run(runner, "setup", "seed", "--config", configPath, "--file", seedPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Seeded 3 directories, 3 playlists and 1 link") {
			t.Errorf("expected seed counts, got %q", output.String())
		}

		db, err := shared.NewDatabase(dbPath)
		if err != nil {
			t.Fatalf("failed to open seeded database: %v", err)
		}
		defer db.Close()

		links, err := repositories.NewLinkRepository(db).List(context.Background())
		if err != nil {
			t.Fatalf("failed to list links: %v", err)
		}
		if len(links) != 1 {
			t.Errorf("expected 1 seeded link, got %d", len(links))
		}
	})

	t.Run("seed missing file", func(t *testing.T) {
		configPath, _ := writeTestConfig(t)
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: &bytes.Buffer{}})

		if err := run(runner, "setup", "seed", "--config", configPath, "--file", "missing.json"); err == nil {
			t.Error("expected error for a missing seed file")
		}
	})
}
