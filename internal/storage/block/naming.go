package block

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// FormatBlockID creates a block identifier from a hash of the owning file's ID
// and the block index within that file. File IDs are stable across renames, so
// block IDs are too.
func FormatBlockID(fileID string, index int) string {
	return fmt.Sprintf("%s_%d", HashFileID(fileID), index)
}

func HashFileID(fileID string) string {
	sum := sha256.Sum256([]byte(fileID))
	return hex.EncodeToString(sum[:8]) // first 8 bytes
}

// ParseBlockID extracts the file hash and block index from a block ID.
func ParseBlockID(blockID string) (string, int, error) {
	parts := strings.Split(blockID, "_")
	if len(parts) != 2 || len(parts[0]) != 16 {
		return "", 0, fmt.Errorf("%w: invalid format: %s", ErrInvalidBlockID, blockID)
	}
	if _, err := hex.DecodeString(parts[0]); err != nil {
		return "", 0, fmt.Errorf("%w: invalid file hash: %s", ErrInvalidBlockID, blockID)
	}

	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("%w: invalid block index: %s", ErrInvalidBlockID, blockID)
	}
	return parts[0], index, nil
}
