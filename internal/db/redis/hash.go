package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kbase/internal/db"
)

// unlinkChunk caps the keys sent in one UNLINK.
const unlinkChunk = 512

// HSet merges fields into a hash.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.do(ctx, s.hset(key, fields)).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return nil
}

// Replace overwrites each hash inside its own MULTI/EXEC block so readers
// never observe a half-written record. All blocks share one round-trip.
func (s *Store) Replace(ctx context.Context, hashes ...db.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	// Commands are recycled once sent, so EXEC positions are recorded up front.
	cmds := make([]rueidis.Completed, 0, len(hashes)*4)
	exec := make(map[int]bool, len(hashes))
	for _, h := range hashes {
		cmds = append(cmds, s.b().Multi().Build(), s.b().Del().Key(h.Key).Build())
		if len(h.Fields) > 0 {
			cmds = append(cmds, s.hset(h.Key, h.Fields))
		}
		exec[len(cmds)] = true
		cmds = append(cmds, s.b().Exec().Build())
	}

	results := s.client.DoMulti(ctx, cmds...)
	hash := 0
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("key %s: %w", hashes[hash].Key, err)}
		}
		if !exec[i] {
			continue
		}
		// EXEC succeeds even when a queued command fails; check each reply.
		replies, err := res.ToArray()
		if err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("key %s: %w", hashes[hash].Key, err)}
		}
		for _, r := range replies {
			if err := r.Error(); err != nil {
				return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", hashes[hash].Key, err)}
			}
		}
		hash++
	}
	return nil
}

// HGetAll returns all fields of a hash.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// HGetAllMulti fetches several hashes in a single DoMulti round-trip,
// in key order.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	out := make([]map[string]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = m
	}
	return out, nil
}

// Del removes keys with UNLINK, batching large sets so no single command
// carries more than unlinkChunk keys. Missing keys are ignored.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, (len(keys)+unlinkChunk-1)/unlinkChunk)
	for chunk := range slices.Chunk(keys, unlinkChunk) {
		cmds = append(cmds, s.b().Unlink().Key(chunk...).Build())
	}

	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpUnlink, Err: err}
		}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}

// Scan walks the keyspace for keys matching a glob pattern. SCAN may
// report a key twice while the server rehashes; duplicates are dropped.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(s.scanCount).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		for _, k := range res.Elements {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
		if cursor = res.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}

// hset builds an HSET with fields in sorted order, so identical writes
// produce identical commands.
func (s *Store) hset(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		cmd = cmd.FieldValue(k, fields[k])
	}
	return cmd.Build()
}
