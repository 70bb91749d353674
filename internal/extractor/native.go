package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// ErrUnsafePath is returned for archive entries that would land outside the
// destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Native extracts zip archives in process
type Native struct {
	logger *utils.Logger
}

var _ domain.Extractor = (*Native)(nil)

// NewNative creates a Native extractor
func NewNative(logger *utils.Logger) *Native {
	return &Native{logger: utils.OrNop(logger)}
}

// Name returns the extraction method name
func (n *Native) Name() string {
	return MethodNative
}

// Extract unpacks archivePath into destDir, checking ctx between entries
func (n *Native) Extract(ctx context.Context, archivePath, destDir string) error {
	n.logger.Debug().
		Str("archive", archivePath).
		Str("destination", destDir).
		Msg("Extracting archive")

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	dest, err := canonicalDest(destDir)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.extractFile(f, dest); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}

	n.logger.Debug().Int("entries", len(zr.File)).Msg("Archive extracted")
	return nil
}

func canonicalDest(destDir string) (string, error) {
	dest, err := filepath.Abs(destDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(dest)
}

func (n *Native) extractFile(f *zip.File, dest string) error {
	name := strings.ReplaceAll(f.Name, `\`, "/")
	if path.IsAbs(name) || filepath.VolumeName(filepath.FromSlash(name)) != "" {
		return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
	}

	mode := f.Mode()
	if mode.IsDir() {
		dir, err := resolveInside(dest, dest, name)
		if err != nil {
			return err
		}
		return os.MkdirAll(dir, 0755)
	}

	base := path.Base(name)
	if base == "." || base == ".." {
		return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
	}
	parent, err := resolveInside(dest, dest, path.Dir(name))
	if err != nil {
		return err
	}
	target := filepath.Join(parent, base)
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s overwrites a symlink", ErrUnsafePath, f.Name)
	}

	if mode&os.ModeSymlink != 0 {
		return n.writeSymlink(f, dest, parent, target)
	}
	return writeRegular(f, parent, target, mode.Perm())
}

func writeRegular(f *zip.File, parent, target string, perm os.FileMode) error {
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (n *Native) writeSymlink(f *zip.File, dest, parent, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	linkBytes, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return err
	}

	link := string(linkBytes)
	if _, err := resolveInside(dest, parent, filepath.ToSlash(link)); err != nil {
		return fmt.Errorf("%w: link %s -> %s", ErrUnsafePath, f.Name, link)
	}

	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	return os.Symlink(link, target)
}

// maxLinkHops bounds symlink chains followed while resolving a path
const maxLinkHops = 40

// resolveInside walks rel from the real directory start the way the
// filesystem would, following symlinks already on disk, and returns the
// resulting path. Components that do not exist yet are taken as plain
// directories. Any step that leaves dest fails with ErrUnsafePath.
func resolveInside(dest, start, rel string) (string, error) {
	hops := 0
	resolved, err := walkInside(dest, start, rel, &hops)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, rel)
	}
	return resolved, nil
}

func walkInside(dest, cur, rel string, hops *int) (string, error) {
	if path.IsAbs(rel) {
		abs := filepath.FromSlash(rel)
		if !within(dest, abs) {
			return "", ErrUnsafePath
		}
		r, _ := filepath.Rel(dest, filepath.Clean(abs))
		cur, rel = dest, filepath.ToSlash(r)
	}

	for _, part := range strings.Split(rel, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			if !within(dest, cur) {
				return "", ErrUnsafePath
			}
			continue
		}

		next := filepath.Join(cur, part)
		info, err := os.Lstat(next)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			cur = next
			continue
		}

		*hops++
		if *hops > maxLinkHops {
			return "", ErrUnsafePath
		}
		link, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if cur, err = walkInside(dest, cur, filepath.ToSlash(link), hops); err != nil {
			return "", err
		}
	}
	return cur, nil
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
