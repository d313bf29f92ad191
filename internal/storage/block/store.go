package block

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const checksumSuffix = ".sha256"

// AferoStore keeps block payloads in an afero filesystem, one file per block
// plus a checksum sidecar.
type AferoStore struct {
	fs      afero.Fs
	rootDir string
	logger  *slog.Logger
}

func NewAferoStore(fs afero.Fs, rootDir string, logger *slog.Logger) (*AferoStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fs.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rootDir for block storage: %w", handleFsError(err))
	}
	return &AferoStore{fs: fs, rootDir: rootDir, logger: logger}, nil
}

// blockPath nests blocks two levels deep by ID prefix, e.g. a block
// "f1d2d2f924e98a1b_0" is stored at "<rootDir>/f1/d2/f1d2d2f924e98a1b_0".
func (s *AferoStore) blockPath(blockID string) (string, error) {
	if _, _, err := ParseBlockID(blockID); err != nil {
		return "", err
	}
	return filepath.Join(s.rootDir, blockID[0:2], blockID[2:4], blockID), nil
}

func (s *AferoStore) Put(blockID string, data []byte) (Header, error) {
	fullPath, err := s.blockPath(blockID)
	if err != nil {
		return Header{}, err
	}

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return Header{}, fmt.Errorf("failed to create directory for block %s: %w", blockID, handleFsError(err))
	}

	header := Header{ID: blockID, Size: int64(len(data)), Checksum: CalculateChecksum(data)}
	if err := afero.WriteFile(s.fs, fullPath, data, 0644); err != nil {
		return Header{}, fmt.Errorf("failed to write block %s: %w", blockID, handleFsError(err))
	}
	if err := afero.WriteFile(s.fs, fullPath+checksumSuffix, []byte(header.Checksum), 0644); err != nil {
		return Header{}, fmt.Errorf("failed to write checksum for block %s: %w", blockID, handleFsError(err))
	}

	s.logger.Debug("stored block", slog.String("block_id", blockID), slog.Int64("size", header.Size))
	return header, nil
}

func (s *AferoStore) Header(blockID string) (Header, error) {
	fullPath, err := s.blockPath(blockID)
	if err != nil {
		return Header{}, err
	}

	info, err := s.fs.Stat(fullPath)
	if err != nil {
		return Header{}, fmt.Errorf("failed to stat block %s: %w", blockID, handleFsError(err))
	}
	sum, err := afero.ReadFile(s.fs, fullPath+checksumSuffix)
	if err != nil {
		return Header{}, fmt.Errorf("failed to read checksum for block %s: %w", blockID, handleFsError(err))
	}
	checksum := strings.TrimSpace(string(sum))
	if len(checksum) != 64 {
		return Header{}, fmt.Errorf("%w: block %s", ErrCorruptedChecksum, blockID)
	}

	return Header{ID: blockID, Size: info.Size(), Checksum: checksum}, nil
}

func (s *AferoStore) Get(blockID string) ([]byte, error) {
	header, err := s.Header(blockID)
	if err != nil {
		return nil, err
	}

	fullPath, _ := s.blockPath(blockID)
	data, err := afero.ReadFile(s.fs, fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read block %s: %w", blockID, handleFsError(err))
	}
	if !VerifyChecksum(data, header.Checksum) {
		return nil, fmt.Errorf("%w: block %s", ErrChecksumMismatch, blockID)
	}
	return data, nil
}

func (s *AferoStore) Delete(blockID string) error {
	fullPath, err := s.blockPath(blockID)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete block %s: %w", blockID, handleFsError(err))
	}
	if err := s.fs.Remove(fullPath + checksumSuffix); err != nil {
		s.logger.Warn("failed to delete checksum sidecar", slog.String("block_id", blockID), slog.String("error", err.Error()))
	}

	// Clean up the two levels of prefix directories when they empty out.
	dirPath := filepath.Dir(fullPath)
	for i := 0; i < 2; i++ {
		empty, err := afero.IsEmpty(s.fs, dirPath)
		if err != nil || !empty {
			break
		}
		if err := s.fs.Remove(dirPath); err != nil {
			break
		}
		dirPath = filepath.Dir(dirPath)
	}
	return nil
}

func (s *AferoStore) Exists(blockID string) bool {
	fullPath, err := s.blockPath(blockID)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, fullPath)
	return err == nil && ok
}

func (s *AferoStore) List() ([]string, error) {
	blocks := make([]string, 0)
	err := afero.Walk(s.fs, s.rootDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && !strings.HasSuffix(info.Name(), checksumSuffix) {
			blocks = append(blocks, info.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", handleFsError(err))
	}
	return blocks, nil
}
