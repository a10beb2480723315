package release

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"centrifuge/internal/audio"
	"centrifuge/internal/logging"
	"centrifuge/internal/services"
)

// Builder turns release directories into Release models.
type Builder struct {
	reader  audio.Reader
	workers int
	logger  *slog.Logger
}

// NewBuilder constructs a builder reading tags through reader.
func NewBuilder(reader audio.Reader, workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{
		reader:  reader,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "release"),
	}
}

// Build reads every audio file beneath dir. Unparseable files become tracks
// flagged unreadable. It returns nil, nil when dir holds no audio.
func (b *Builder) Build(ctx context.Context, dir string) (*Release, error) {
	dir = filepath.Clean(dir)
	var paths, nonAudio []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if audio.HasAudioExtension(d.Name()) {
			paths = append(paths, rel)
		} else {
			nonAudio = append(nonAudio, rel)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "build", "walk release", dir, err)
	}
	if len(paths) == 0 {
		return nil, nil
	}

	rel := &Release{
		SourceDir: dir,
		Category:  GuessCategory(dir),
		Source:    GuessSource(dir),
		NonAudio:  nonAudio,
		Tracks:    make([]Track, 0, len(paths)),
	}
	for _, path := range paths {
		info, err := b.reader.Read(ctx, filepath.Join(dir, path))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			b.logger.Debug("track unreadable",
				logging.String(logging.FieldRelease, dir),
				logging.String("file", path),
				logging.Error(err),
			)
			rel.Tracks = append(rel.Tracks, Track{Path: path, Unreadable: true, ReadError: err.Error()})
			rel.Unreadable = append(rel.Unreadable, path)
			continue
		}
		rel.Tracks = append(rel.Tracks, trackFromInfo(path, info))
	}
	rel.Declare()
	return rel, nil
}

func trackFromInfo(path string, info audio.Info) Track {
	return Track{
		Path:          path,
		TrackNumber:   info.TrackNumber,
		TrackTotal:    info.TrackTotal,
		DiscNumber:    info.DiscNumber,
		DiscTotal:     info.DiscTotal,
		Title:         info.Title,
		Artist:        info.Artist,
		ReleaseArtist: info.ReleaseArtist,
		ReleaseTitle:  info.ReleaseTitle,
		Date:          info.Date,
		Genre:         info.Genre,
		Comment:       info.Comment,
		Codec:         info.Codec,
		BitrateMode:   info.BitrateMode,
		Bitrate:       info.Bitrate,
		Duration:      info.Duration,
		TagType:       info.TagType,
		Raw:           info.Raw,
	}
}

// BuildAll builds dirs on a bounded worker pool. Results keep input order;
// entries are nil for directories without audio or that failed to build.
func (b *Builder) BuildAll(ctx context.Context, dirs []string) ([]*Release, error) {
	out := make([]*Release, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, dir := range dirs {
		g.Go(func() error {
			rel, err := b.Build(gctx, dir)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logging.WarnWithContext(b.logger, "release build failed", "release_build_failed",
					logging.String(logging.FieldRelease, dir),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check directory permissions"),
					logging.String(logging.FieldImpact, "release skipped"),
				)
				return nil
			}
			out[i] = rel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
