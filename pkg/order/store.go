package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/haivivi/tably/go/pkg/storage"
)

// StoreOptions configures the optional sinks attached to a Store.
type StoreOptions struct {
	// Archive mirrors every saved record to a second file store.
	// Mirror failures are logged, never returned; the primary store
	// holds the durable copy.
	Archive storage.FileStore
	// Stats tallies item counts and the order index on every save.
	// Stats failures are logged, never returned.
	Stats *Stats
	// Logger for non-fatal sink failures. Nil means slog.Default.
	Logger *slog.Logger
}

// Store persists finalized order records, one JSON file per order.
type Store struct {
	files   storage.FileStore
	archive storage.FileStore
	stats   *Stats
	log     *slog.Logger
}

// NewStore wraps files as the durable order store. opts may be nil.
func NewStore(files storage.FileStore, opts *StoreOptions) *Store {
	if opts == nil {
		opts = &StoreOptions{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		files:   files,
		archive: opts.Archive,
		stats:   opts.Stats,
		log:     log,
	}
}

// Save writes rec under its Filename. The primary write is atomic;
// archive and stats sinks run after it and cannot fail the save.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	name := rec.Filename()
	if err := storage.WriteFile(ctx, s.files, name, data); err != nil {
		return err
	}
	if s.archive != nil {
		if err := storage.WriteFile(ctx, s.archive, name, data); err != nil {
			s.log.Warn("order: archive mirror failed", "file", name, "error", err)
		}
	}
	if s.stats != nil {
		if err := s.stats.Record(ctx, rec); err != nil {
			s.log.Warn("order: stats update failed", "order", rec.ID, "error", err)
		}
	}
	return nil
}

// Load reads one persisted record by file name.
func (s *Store) Load(ctx context.Context, name string) (*Record, error) {
	data, err := storage.ReadFile(ctx, s.files, name)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &rec, nil
}

// List returns the persisted order file names, newest first. The
// trailing unix-millisecond stamp in each name gives the sort key.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.files.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if strings.HasSuffix(n, ".json") {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := fileStamp(out[i]), fileStamp(out[j])
		if si != sj {
			return si > sj
		}
		return out[i] < out[j]
	})
	return out, nil
}

func fileStamp(name string) int64 {
	base := strings.TrimSuffix(name, ".json")
	i := strings.LastIndexByte(base, '-')
	if i < 0 {
		return 0
	}
	n, _ := strconv.ParseInt(base[i+1:], 10, 64)
	return n
}
