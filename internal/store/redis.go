package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
)

const dataField = "data"
const idxFieldPrefix = "idx:"

// Redis stores each row as a hash holding the JSON document and its index
// values. A set per table lists the ids and a set per index value lists
// the matching ids. Writes run under WATCH so concurrent updates of one
// row retry instead of overwriting each other.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "medtrack"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) recKey(table, id string) string {
	return r.prefix + ":" + table + ":rec:" + id
}

func (r *Redis) idsKey(table string) string {
	return r.prefix + ":" + table + ":ids"
}

func (r *Redis) idxKey(table, index, value string) string {
	return r.prefix + ":" + table + ":idx:" + index + ":" + value
}

func (r *Redis) Get(ctx context.Context, table, id string) ([]byte, error) {
	data, err := r.rdb.HGet(ctx, r.recKey(table, id), dataField).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", table, id, err)
	}
	return data, nil
}

func (r *Redis) Mutate(ctx context.Context, table, id string, fn Mutation) error {
	key := r.recKey(table, id)

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		exists := len(fields) > 0

		var old []byte
		if exists {
			old = []byte(fields[dataField])
		}
		oldIdx := indexFromFields(fields)

		data, idx, err := fn(old, exists)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			values := []any{dataField, data}
			for name, v := range idx {
				values = append(values, idxFieldPrefix+name, v)
			}
			pipe.HSet(ctx, key, values...)
			pipe.SAdd(ctx, r.idsKey(table), id)
			for name, v := range oldIdx {
				if idx[name] != v {
					pipe.SRem(ctx, r.idxKey(table, name, v), id)
				}
			}
			for name, v := range idx {
				pipe.SAdd(ctx, r.idxKey(table, name, v), id)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		switch {
		case err == nil, errors.Is(err, errSkip):
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return err
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrConflict, table, id)
}

func (r *Redis) Scan(ctx context.Context, table string) ([][]byte, error) {
	ids, err := r.rdb.SMembers(ctx, r.idsKey(table)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", table, err)
	}
	return r.load(ctx, table, ids)
}

func (r *Redis) ListBy(ctx context.Context, table, index, value string) ([][]byte, error) {
	ids, err := r.rdb.SMembers(ctx, r.idxKey(table, index, value)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s by %s: %w", table, index, err)
	}
	return r.load(ctx, table, ids)
}

func (r *Redis) load(ctx context.Context, table string, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	slices.Sort(ids)

	cmds := make([]*redis.StringCmd, len(ids))
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGet(ctx, r.recKey(table, id), dataField)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis load %s: %w", table, err)
	}

	out := make([][]byte, 0, len(ids))
	for _, cmd := range cmds {
		b, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			// deleted between the set read and the load
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Redis) Delete(ctx context.Context, table, id string) error {
	key := r.recKey(table, id)

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, r.idsKey(table), id)
			for name, v := range indexFromFields(fields) {
				pipe.SRem(ctx, r.idxKey(table, name, v), id)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %s/%s", ErrConflict, table, id)
}

func (r *Redis) Close() error { return nil }

func indexFromFields(fields map[string]string) map[string]string {
	idx := make(map[string]string)
	for k, v := range fields {
		if name, ok := strings.CutPrefix(k, idxFieldPrefix); ok {
			idx[name] = v
		}
	}
	return idx
}
