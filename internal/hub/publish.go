package hub

import (
	"fmt"
	"io/fs"
	"mime"
	"path"
)

// ShareRoot is the top-level directory of the token redirect namespace.
const ShareRoot = "s"

// PathFilter decides which site paths are kept out of a publish.
type PathFilter interface {
	Match(relativePath string) bool
}

// Publish uploads every file of the built tree to p.
// The remote share namespace is pruned first so removed tokens stop resolving.
// Returns the number of files uploaded.
func (s *HubService) Publish(tree fs.FS, p Publisher, ignore PathFilter) (int, error) {
	if err := p.ValidateSetup(); err != nil {
		return 0, fmt.Errorf("validating publisher %s: %w", p.Name(), err)
	}

	if err := p.DeletePrefix(ShareRoot + "/"); err != nil {
		return 0, fmt.Errorf("pruning share namespace on %s: %w", p.Name(), err)
	}

	count := 0
	err := fs.WalkDir(tree, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name == "." {
			return nil
		}
		if ignore != nil && ignore.Match(name) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := s.publishFile(tree, name, p); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("publishing site: %w", err)
	}

	s.logger.Info("site published", "publisher", p.Name(), "files", count)
	return count, nil
}

func (s *HubService) publishFile(tree fs.FS, name string, p Publisher) error {
	f, err := tree.Open(name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	if err := p.PutFile(name, f, info.Size(), contentTypeFor(name)); err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	s.logger.Debug("file published", "key", name, "size", info.Size())
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
