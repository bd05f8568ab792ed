package table

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// Source is the random-access view a format reader needs. afero.File and
// *os.File both satisfy it.
type Source interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Reader decodes one serialized table format.
type Reader interface {
	Format() string
	CanRead(filename string) bool
	Read(name string, src Source) (*Table, error)
}

var registry []Reader

// Register adds a format reader to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ErrUnsupportedFormat indicates no registered reader handles the file.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// ReaderFor selects a reader by file name. Files without a recognised
// extension are treated as parquet.
func ReaderFor(path string) (Reader, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r, nil
		}
	}
	if filepath.Ext(path) == "" {
		for _, r := range registry {
			if r.Format() == FormatParquet {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// ReadFile opens path on fs and decodes it with the matching reader.
func ReadFile(fs afero.Fs, path string) (*Table, error) {
	r, err := ReaderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	t, err := r.Read(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Format(), err)
	}
	return t, nil
}

func init() {
	Register(parquetReader{})
	Register(csvReader{})
}
