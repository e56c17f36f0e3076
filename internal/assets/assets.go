// Package assets locates and caches DAT containers on disk.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/sied-dat/pkg/dat"
)

// filePrefix is the base name of numbered graphics containers.
const filePrefix = "siedler3_"

// Manager opens DAT containers by numeric file id and keeps them open for
// its own lifetime. It implements dat.Resolver, so animation records can
// reference sequences across files. Lookups are lazy; an opened reader is
// never evicted.
type Manager struct {
	dir      string
	typ      dat.DatFileType
	override bool
	log      *zap.Logger

	mu      sync.Mutex
	readers map[uint16]*dat.Reader
}

// NewManager creates a manager over a directory of numbered containers.
func NewManager(dir string, typ dat.DatFileType, overrideDifferences bool, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dir:      dir,
		typ:      typ,
		override: overrideDifferences,
		log:      log,
		readers:  make(map[uint16]*dat.Reader),
	}
}

// File returns the opened container for a file id, opening it on first
// request. Implements dat.Resolver.
func (m *Manager) File(id uint16) (*dat.Reader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.readers[id]; ok {
		return r, nil
	}

	path, err := m.findFile(id)
	if err != nil {
		return nil, err
	}

	m.log.Info("opening container", zap.Uint16("id", id), zap.String("path", path))
	r, err := dat.Open(path, m.typ, dat.Options{
		OverrideDifferences: m.override,
		Logger:              m.log,
	})
	if err != nil {
		return nil, err
	}
	m.readers[id] = r
	return r, nil
}

// findFile locates the container file for an id, matching the conventional
// name case-insensitively. Game data copied from CD or Windows installs
// arrives with unpredictable casing.
func (m *Manager) findFile(id uint16) (string, error) {
	want := fmt.Sprintf("%s%02d%s", filePrefix, id, m.typ.FileSuffix())

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return "", fmt.Errorf("reading data directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), want) {
			return filepath.Join(m.dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no container %q in %s", want, m.dir)
}

// Close closes all opened containers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.readers {
		if err := r.Close(); err != nil {
			m.log.Warn("closing container", zap.Uint16("id", id), zap.Error(err))
		}
	}
	m.readers = make(map[uint16]*dat.Reader)
}
