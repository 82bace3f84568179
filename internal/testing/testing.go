// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/sortifyr/internal/models"
)

// MockService is an in-memory test double for [services.Service].
//
// SyncLinks replaces Links wholesale and assigns ids to new records. Set Gate
// to hold SyncLinks until a value is received or the channel is closed.
type MockService struct {
	mu sync.Mutex

	Links       []models.Link
	Directories []models.Directory
	Playlists   []models.Playlist

	GetErr         error
	SyncErr        error
	DirectoriesErr error
	Gate           chan struct{}

	Synced [][]models.Link
	nextID int
}

func (m *MockService) GetLinks(ctx context.Context) ([]models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return append([]models.Link(nil), m.Links...), nil
}

func (m *MockService) SyncLinks(ctx context.Context, links []models.Link) ([]models.Link, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Synced = append(m.Synced, append([]models.Link(nil), links...))
	if m.SyncErr != nil {
		return nil, m.SyncErr
	}

	for _, l := range m.Links {
		m.nextID = max(m.nextID, l.ID)
	}
	stored := make([]models.Link, 0, len(links))
	for _, l := range links {
		if l.ID == 0 {
			m.nextID++
			l.ID = m.nextID
		}
		stored = append(stored, l)
	}
	m.Links = stored
	return append([]models.Link(nil), stored...), nil
}

func (m *MockService) GetDirectories(ctx context.Context) ([]models.Directory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.DirectoriesErr != nil {
		return nil, m.DirectoriesErr
	}
	return m.Directories, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Playlists, nil
}

// SyncCount returns how many times SyncLinks was called.
func (m *MockService) SyncCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Synced)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
