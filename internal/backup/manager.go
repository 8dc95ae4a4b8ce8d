package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/db"
	"mileage-reimbursement-service/internal/platform/obs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	filePrefix  = "app_db_"
	fileLayout  = "20060102_150405"
	DefaultKeep = 10
)

var nameRE = regexp.MustCompile(`^app_db_\d{8}_\d{6}(_\d+)?\.db$`)

type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
	// Trips is the number of trips in the snapshot, -1 when it cannot be read.
	Trips int
}

// Manager takes consistent snapshots of a SQLite database into a directory
// and keeps only the newest ones.
type Manager struct {
	conn    *sqlx.DB
	dir     string
	keep    int
	enabled bool
	log     *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

func NewManager(conn *sqlx.DB, dir string, keep int, autoBackup bool, log *zap.Logger) (*Manager, error) {
	if conn == nil {
		return nil, errors.New("backup manager: DB is nil")
	}
	if conn.DriverName() != db.DriverSQLite {
		return nil, fmt.Errorf("backup manager: driver %q not supported, sqlite only", conn.DriverName())
	}
	if dir == "" {
		return nil, errors.New("backup manager: directory is empty")
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Manager{
		conn:    conn,
		dir:     dir,
		keep:    keep,
		enabled: autoBackup,
		log:     log.Named("backup"),
		now:     time.Now,
	}, nil
}

// Create writes a new snapshot with VACUUM INTO and prunes old ones.
func (m *Manager) Create(ctx context.Context) (_ Info, err error) {
	defer obs.Time(ctx, "backup.Create")(&err)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return Info{}, fmt.Errorf("create backup: mkdir %q: %w", m.dir, err)
	}

	path, err := m.nextPath()
	if err != nil {
		return Info{}, err
	}

	if _, err := m.conn.ExecContext(ctx, `VACUUM INTO ?;`, path); err != nil {
		return Info{}, fmt.Errorf("create backup: vacuum into %q: %w", path, err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("create backup: stat %q: %w", path, err)
	}

	if err := m.prune(); err != nil {
		m.log.Warn("backup rotation failed", zap.Error(err))
	}

	info := Info{Name: filepath.Base(path), Size: st.Size(), ModTime: st.ModTime(), Trips: countTrips(ctx, path)}
	m.log.Info("backup created", zap.String("name", info.Name), zap.Int64("size", info.Size))
	return info, nil
}

// AutoBackup snapshots after a write when automatic backups are enabled.
// Errors are logged, never returned.
func (m *Manager) AutoBackup(ctx context.Context) {
	if !m.enabled {
		return
	}
	if _, err := m.Create(ctx); err != nil {
		m.log.Error("automatic backup failed", zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
	}
}

// List returns the snapshots newest first.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	names, err := m.names()
	if err != nil {
		return nil, err
	}

	out := make([]Info, 0, len(names))
	for _, name := range names {
		path := filepath.Join(m.dir, name)
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		out = append(out, Info{Name: name, Size: st.Size(), ModTime: st.ModTime(), Trips: countTrips(ctx, path)})
	}
	return out, nil
}

func (m *Manager) Delete(name string) error {
	if !nameRE.MatchString(name) {
		return domain.NewValidationError("name", "is not a backup file name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(filepath.Join(m.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete backup %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete backup %q: %w", name, err)
	}

	m.log.Info("backup deleted", zap.String("name", name))
	return nil
}

// Path returns the on-disk location of a snapshot for download.
func (m *Manager) Path(name string) (string, error) {
	if !nameRE.MatchString(name) {
		return "", domain.NewValidationError("name", "is not a backup file name")
	}

	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("backup %q: %w", name, domain.ErrNotFound)
		}
		return "", fmt.Errorf("backup %q: %w", name, err)
	}
	return path, nil
}

// nextPath picks a free file name; several snapshots in one second get a suffix.
func (m *Manager) nextPath() (string, error) {
	base := filePrefix + m.now().Format(fileLayout)
	for i := 0; i < 1000; i++ {
		name := base + ".db"
		if i > 0 {
			name = base + "_" + strconv.Itoa(i) + ".db"
		}

		path := filepath.Join(m.dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("create backup: no free file name for %s", base)
}

func (m *Manager) prune() error {
	names, err := m.names()
	if err != nil {
		return err
	}
	if len(names) <= m.keep {
		return nil
	}

	var errs []error
	for _, name := range names[m.keep:] {
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		m.log.Info("old backup removed", zap.String("name", name))
	}
	return errors.Join(errs...)
}

// names lists snapshot files newest first.
func (m *Manager) names() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups: read dir %q: %w", m.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && nameRE.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Slice(names, func(i, j int) bool { return backupOrder(names[i]) > backupOrder(names[j]) })
	return names, nil
}

// backupOrder makes "x_1.db" sort after "x.db" within the same second.
func backupOrder(name string) string {
	stamp := name[len(filePrefix) : len(filePrefix)+len(fileLayout)]
	seq := 0
	if rest := name[len(filePrefix)+len(fileLayout) : len(name)-len(".db")]; rest != "" {
		seq, _ = strconv.Atoi(rest[1:])
	}
	return fmt.Sprintf("%s_%04d", stamp, seq)
}

func countTrips(ctx context.Context, path string) int {
	snap, err := sqlx.Open(db.DriverSQLite, path)
	if err != nil {
		return -1
	}
	defer snap.Close()

	var n int
	if err := snap.GetContext(ctx, &n, `SELECT COUNT(*) FROM trips;`); err != nil {
		return -1
	}
	return n
}
