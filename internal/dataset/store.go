package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	partPrefix = "part-"
	partExt    = ".parquet"
)

// Store is the append-only dataset: one directory per partition, one
// immutable parquet file per appended batch.
type Store struct {
	root   string
	mirror storage.ObjectStorage
	locks  map[domain.Partition]*sync.RWMutex
}

type Option func(*Store)

// WithMirror copies every new part to object storage and removes mirrored
// parts on reset.
func WithMirror(m storage.ObjectStorage) Option {
	return func(s *Store) { s.mirror = m }
}

// NewStore prepares the partition directories under root.
func NewStore(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:  root,
		locks: make(map[domain.Partition]*sync.RWMutex, len(domain.Partitions)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range domain.Partitions {
		if err := os.MkdirAll(s.dir(p), 0o755); err != nil {
			return nil, &domain.StorageError{Partition: p, Op: "init", Err: err}
		}
		s.locks[p] = &sync.RWMutex{}
	}
	return s, nil
}

func (s *Store) dir(p domain.Partition) string {
	return filepath.Join(s.root, string(p))
}

func (s *Store) lock(p domain.Partition) (*sync.RWMutex, error) {
	l, ok := s.locks[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPartition, p)
	}
	return l, nil
}

// Append writes batch as a new part. The part only becomes visible once fully
// written, so a failed append leaves nothing behind. Appends run concurrently
// with each other and with scans.
func (s *Store) Append(ctx context.Context, p domain.Partition, batch []domain.Record) (domain.PartID, error) {
	l, err := s.lock(p)
	if err != nil {
		return "", err
	}
	if len(batch) == 0 {
		return "", domain.ErrEmptyBatch
	}
	for i := range batch {
		if batch[i].Kind != p {
			return "", fmt.Errorf("%w: record %d is %q, partition is %q",
				domain.ErrPartitionMismatch, i, batch[i].Kind, p)
		}
	}

	l.RLock()
	defer l.RUnlock()

	id := domain.PartID(partPrefix + uuid.New().String())
	final := filepath.Join(s.dir(p), string(id)+partExt)
	tmp := filepath.Join(s.dir(p), "."+string(id)+partExt+".tmp")

	if err := writePart(tmp, batch); err != nil {
		os.Remove(tmp)
		return "", &domain.StorageError{Partition: p, Op: "append", Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", &domain.StorageError{Partition: p, Op: "append", Err: err}
	}

	s.mirrorPart(ctx, p, id, final)

	log.Info().
		Str("partition", string(p)).
		Str("part", string(id)).
		Int("rows", len(batch)).
		Msg("dataset: part appended")

	return id, nil
}

func (s *Store) mirrorPart(ctx context.Context, p domain.Partition, id domain.PartID, path string) {
	if s.mirror == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err == nil {
		err = s.mirror.UploadObject(ctx, mirrorKey(p, id), data)
	}
	if err != nil {
		log.Warn().Err(err).Str("part", string(id)).Msg("dataset: mirror upload failed")
	}
}

func mirrorKey(p domain.Partition, id domain.PartID) string {
	return string(p) + "/" + string(id) + partExt
}

// Parts lists the partition's parts, oldest first.
func (s *Store) Parts(p domain.Partition) ([]domain.PartInfo, error) {
	if _, err := s.lock(p); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir(p))
	if err != nil {
		return nil, &domain.StorageError{Partition: p, Op: "list", Err: err}
	}

	parts := make([]domain.PartInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, partPrefix) || !strings.HasSuffix(name, partExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &domain.StorageError{Partition: p, Op: "list", Err: err}
		}
		parts = append(parts, domain.PartInfo{
			ID:        domain.PartID(strings.TrimSuffix(name, partExt)),
			Partition: p,
			Path:      filepath.Join(s.dir(p), name),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].CreatedAt.Equal(parts[j].CreatedAt) {
			return parts[i].ID < parts[j].ID
		}
		return parts[i].CreatedAt.Before(parts[j].CreatedAt)
	})
	return parts, nil
}

// Scan reads every record in the partition. Parts appended while a scan runs
// may or may not be included.
func (s *Store) Scan(ctx context.Context, p domain.Partition) ([]domain.Record, error) {
	l, err := s.lock(p)
	if err != nil {
		return nil, err
	}
	l.RLock()
	defer l.RUnlock()

	parts, err := s.Parts(p)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readPart(part.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, &domain.StorageError{Partition: p, Op: "scan " + string(part.ID), Err: err}
		}
		records = append(records, recs...)
	}
	return records, nil
}

// Reset irreversibly deletes every part of the partition. It waits for running
// appends and scans and blocks new ones until done.
func (s *Store) Reset(ctx context.Context, p domain.Partition) error {
	l, err := s.lock(p)
	if err != nil {
		return err
	}
	l.Lock()
	defer l.Unlock()

	parts, err := s.Parts(p)
	if err != nil {
		return err
	}
	for _, part := range parts {
		if err := os.Remove(part.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &domain.StorageError{Partition: p, Op: "reset", Err: err}
		}
		if s.mirror != nil {
			if err := s.mirror.DeleteObject(ctx, mirrorKey(p, part.ID)); err != nil {
				log.Warn().Err(err).Str("part", string(part.ID)).Msg("dataset: mirror delete failed")
			}
		}
	}

	log.Info().Str("partition", string(p)).Int("parts", len(parts)).Msg("dataset: partition reset")
	return nil
}

// Restore downloads mirrored parts that are missing locally and returns how
// many were fetched.
func (s *Store) Restore(ctx context.Context, p domain.Partition) (int, error) {
	if s.mirror == nil {
		return 0, fmt.Errorf("no object storage mirror configured")
	}
	l, err := s.lock(p)
	if err != nil {
		return 0, err
	}
	l.Lock()
	defer l.Unlock()

	objects, err := s.mirror.ListObjects(ctx, string(p)+"/")
	if err != nil {
		return 0, &domain.StorageError{Partition: p, Op: "restore", Err: err}
	}

	restored := 0
	for _, obj := range objects {
		name := filepath.Base(obj.Key)
		if !strings.HasPrefix(name, partPrefix) || !strings.HasSuffix(name, partExt) {
			continue
		}
		dest := filepath.Join(s.dir(p), name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		tmp := filepath.Join(s.dir(p), "."+name+".tmp")
		id := domain.PartID(strings.TrimSuffix(name, partExt))
		if err := s.mirror.DownloadObject(ctx, mirrorKey(p, id), tmp); err != nil {
			os.Remove(tmp)
			return restored, &domain.StorageError{Partition: p, Op: "restore", Err: err}
		}
		if err := os.Rename(tmp, dest); err != nil {
			os.Remove(tmp)
			return restored, &domain.StorageError{Partition: p, Op: "restore", Err: err}
		}
		restored++
	}
	return restored, nil
}
