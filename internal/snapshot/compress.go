package snapshot

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Compress writes a gzip copy of the published snapshot next to it, using the
// same write-temp-then-rename discipline, and returns the archive path. The
// archive is what downstream consumers actually download.
func Compress(path string) (string, error) {
	archive := path + ".gz"
	tmp := archive + ".tmp"

	if err := compressTo(path, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, archive); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish archive: %w", err)
	}

	if info, err := os.Stat(archive); err == nil {
		log.Info().
			Str("archive", archive).
			Int64("size_bytes", info.Size()).
			Msg("Snapshot archive written")
	}
	return archive, nil
}

func compressTo(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open snapshot for compression: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}
