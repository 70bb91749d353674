package controller

import (
	"fmt"
	"os"

	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// session holds the temporary archive file and extraction directory owned
// by a single Run.
type session struct {
	archivePath string
	dir         string
}

func newSession(tempDir, prefix string) (*session, error) {
	dir, err := utils.MkdirTempCanonical(tempDir, prefix)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(utils.ExpandPath(tempDir), prefix+"*.zip")
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	f.Close()

	return &session{archivePath: f.Name(), dir: dir}, nil
}

func (s *session) removeArchive() {
	os.Remove(s.archivePath)
}

// discard removes everything the session created
func (s *session) discard() {
	s.removeArchive()
	os.RemoveAll(s.dir)
}
