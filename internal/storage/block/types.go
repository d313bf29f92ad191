package block

// Header describes one stored block payload.
type Header struct {
	ID       string
	Size     int64
	Checksum string
}

// Store holds block payloads keyed by block ID. Payloads are verified against
// their checksum on every read.
type Store interface {
	Put(blockID string, data []byte) (Header, error)
	Get(blockID string) ([]byte, error)
	Header(blockID string) (Header, error)
	Delete(blockID string) error
	Exists(blockID string) bool
	List() ([]string, error)
}
