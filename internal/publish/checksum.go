package publish

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// fileChecksum returns the CRC32C and size of path. Cloud Storage rejects
// an upload whose content does not match the checksum sent with it.
func fileChecksum(path string) (uint32, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := crc32.New(castagnoli)
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, 0, fmt.Errorf("checksum %s: %w", path, err)
	}
	return h.Sum32(), n, nil
}
