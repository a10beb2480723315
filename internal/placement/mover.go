package placement

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"centrifuge/internal/fileutil"
	"centrifuge/internal/logging"
)

// LockFileName is the advisory lock taken in every destination root.
const LockFileName = ".centrifuge.lock"

// Outcome is the result of one move.
type Outcome string

const (
	OutcomeMoved       Outcome = "moved"
	OutcomeCopied      Outcome = "copied"
	OutcomeDryRun      Outcome = "dry-run"
	OutcomeCollision   Outcome = "collision"
	OutcomeCrossDevice Outcome = "cross-device"
	OutcomePermission  Outcome = "permission"
	OutcomeFailed      Outcome = "failed"
)

// MoveResult describes what the Mover did.
type MoveResult struct {
	Outcome     Outcome  `json:"outcome"`
	Destination string   `json:"destination,omitempty"`
	Shortened   []string `json:"shortened,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// OK reports whether the release now lives at Destination.
func (r MoveResult) OK() bool {
	return r.Outcome == OutcomeMoved || r.Outcome == OutcomeCopied
}

// MoverOptions configures the Mover.
type MoverOptions struct {
	// ScanRoot bounds the cleanup of emptied source parents.
	ScanRoot  string
	AllowCopy bool
	MaxPath   int
	DryRun    bool
	// LockTimeout bounds the wait for another process holding a root lock.
	LockTimeout time.Duration
}

// moveMu serializes every move in the process.
var moveMu sync.Mutex

// Mover relocates release directories.
type Mover struct {
	opts   MoverOptions
	logger *slog.Logger
}

// NewMover constructs a mover.
func NewMover(opts MoverOptions, logger *slog.Logger) *Mover {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 30 * time.Second
	}
	return &Mover{opts: opts, logger: logging.NewComponentLogger(logger, "placement")}
}

// Move relocates from to to, inside the destination tree root. It never
// overwrites: an existing destination is reported as a collision.
func (m *Mover) Move(ctx context.Context, root, from, to string) MoveResult {
	result := MoveResult{Destination: to}
	if m.opts.DryRun {
		result.Outcome = OutcomeDryRun
		return result
	}

	moveMu.Lock()
	defer moveMu.Unlock()

	unlock, err := m.lockRoot(ctx, root)
	if err != nil {
		return m.fail(result, from, err)
	}
	defer unlock()

	if fileutil.Exists(to) && !fileutil.SameEntry(from, to) {
		return m.fail(result, from, &os.LinkError{Op: "move", Old: from, New: to, Err: fs.ErrExist})
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return m.fail(result, from, err)
	}

	result.Outcome = OutcomeMoved
	if err := os.Rename(from, to); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, unix.EXDEV) {
			return m.fail(result, from, err)
		}
		if !m.opts.AllowCopy {
			return m.fail(result, from, err)
		}
		if err := fileutil.CopyTreeVerified(ctx, from, to); err != nil {
			return m.fail(result, from, err)
		}
		if err := os.RemoveAll(from); err != nil {
			logging.WarnWithContext(m.logger, "source left behind after verified copy", "move_cleanup_failed",
				logging.String("source", from),
				logging.String("destination", to),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the source directory by hand"),
			)
		}
		result.Outcome = OutcomeCopied
	}

	if m.opts.ScanRoot != "" {
		if err := fileutil.RemoveEmptyParents(filepath.Dir(from), m.opts.ScanRoot); err != nil {
			m.logger.Debug("empty parent cleanup failed", logging.String("source", from), logging.Error(err))
		}
	}
	if m.opts.MaxPath > 0 {
		shortened, err := ShortenLongPaths(to, m.opts.MaxPath)
		result.Shortened = shortened
		if err != nil {
			logging.WarnWithContext(m.logger, "placed release has over-long paths", "path_too_long",
				logging.String("destination", to),
				logging.Error(err),
				logging.String(logging.FieldImpact, "some files keep paths longer than max_path"),
			)
			result.Error = err.Error()
		}
	}

	m.logger.Info("release moved",
		logging.String("source", from),
		logging.String("destination", to),
		logging.String("outcome", string(result.Outcome)),
	)
	return result
}

func (m *Mover) fail(result MoveResult, from string, err error) MoveResult {
	switch {
	case errors.Is(err, fs.ErrExist):
		result.Outcome = OutcomeCollision
	case errors.Is(err, unix.EXDEV):
		result.Outcome = OutcomeCrossDevice
	case errors.Is(err, fs.ErrPermission):
		result.Outcome = OutcomePermission
	default:
		result.Outcome = OutcomeFailed
	}
	result.Error = err.Error()
	logging.WarnWithContext(m.logger, "release not moved", "move_skipped",
		logging.String("source", from),
		logging.String("destination", result.Destination),
		logging.String("outcome", string(result.Outcome)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "release left in place"),
	)
	return result
}

// lockRoot takes the advisory lock of a destination tree, creating the root
// when needed.
func (m *Mover) lockRoot(ctx context.Context, root string) (func(), error) {
	if root == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(root, LockFileName))
	lockCtx, cancel := context.WithTimeout(ctx, m.opts.LockTimeout)
	defer cancel()
	ok, err := lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", root, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: held by another process", root)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Debug("unlock failed", logging.String("root", root), logging.Error(err))
		}
	}, nil
}
