package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// ZipEntry is a single archive member. Names ending in "/" are directories.
type ZipEntry struct {
	Name    string
	Content string
	// Symlink makes the entry a symbolic link pointing at Content
	Symlink bool
}

// BuildZip returns an in-memory zip archive holding entries in order
func BuildZip(t *testing.T, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		switch {
		case strings.HasSuffix(e.Name, "/"):
			hdr.SetMode(os.ModeDir | 0755)
		case e.Symlink:
			hdr.SetMode(os.ModeSymlink | 0777)
		default:
			hdr.SetMode(0644)
		}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if !strings.HasSuffix(e.Name, "/") {
			_, err = w.Write([]byte(e.Content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// WriteZip writes a zip archive of entries to dir/name and returns its path
func WriteZip(t *testing.T, dir, name string, entries ...ZipEntry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, BuildZip(t, entries...), 0644))
	return path
}

// ThemeArchive returns the entries of a codeload-style archive with a single
// top-level directory named root.
func ThemeArchive(root string, files map[string]string) []ZipEntry {
	entries := []ZipEntry{{Name: root + "/"}}
	for name, content := range files {
		entries = append(entries, ZipEntry{Name: root + "/" + name, Content: content})
	}
	return entries
}

// NewArchiveServer serves archives keyed by escaped request path and
// answers 404 for anything else. The server is closed after the test.
func NewArchiveServer(t *testing.T, archives map[string][]byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := archives[r.URL.EscapedPath()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewTruncatingServer answers every request with a 200 that declares
// declared bytes, sends only body and then drops the connection.
func NewTruncatingServer(t *testing.T, declared int, body []byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking not supported", http.StatusInternalServerError)
			return
		}
		conn, rw, err := hj.Hijack()
		if err != nil {
			return
		}
		defer conn.Close()

		fmt.Fprintf(rw, "HTTP/1.1 200 OK\r\nContent-Type: application/zip\r\nContent-Length: %d\r\n\r\n", declared)
		_, _ = rw.Write(body)
		_ = rw.Flush()
	}))
	t.Cleanup(srv.Close)
	return srv
}
