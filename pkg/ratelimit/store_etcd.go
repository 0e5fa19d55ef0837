package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdStore is a Store backed by etcd, for multi-instance deployments where
// rate-limit counters must be shared across replicas (SPEC_FULL.md §2.2).
// Increments use an etcd compare-and-swap transaction keyed on the value's
// ModRevision so concurrent incrementers never lose an update, retrying on
// conflict the way etcd's documented optimistic-concurrency recipes do.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdStore wraps an already-connected etcd client. prefix namespaces
// all keys this store writes, e.g. "/agentcore/ratelimit/".
func NewEtcdStore(client *clientv3.Client, prefix string) *EtcdStore {
	if prefix == "" {
		prefix = "/agentcore/ratelimit/"
	}
	return &EtcdStore{client: client, prefix: prefix}
}

type etcdRecord struct {
	Amount    float64   `json:"amount"`
	WindowEnd time.Time `json:"window_end"`
}

func (s *EtcdStore) key(tenantID, metric string) string {
	return s.prefix + tenantID + "/" + metric
}

func (s *EtcdStore) GetUsage(ctx context.Context, tenantID, metric string, window time.Duration) (float64, time.Time, error) {
	resp, err := s.client.Get(ctx, s.key(tenantID, metric))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: etcd get: %w", err)
	}

	now := time.Now()
	if len(resp.Kvs) == 0 {
		return 0, now.Add(window), nil
	}

	var rec etcdRecord
	if err := json.Unmarshal(resp.Kvs[0].Value, &rec); err != nil {
		return 0, now.Add(window), nil
	}
	if rec.WindowEnd.Before(now) {
		return 0, now.Add(window), nil
	}
	return rec.Amount, rec.WindowEnd, nil
}

func (s *EtcdStore) IncrementUsage(ctx context.Context, tenantID, metric string, window time.Duration, amount float64) (float64, time.Time, error) {
	key := s.key(tenantID, metric)

	for attempt := 0; attempt < 10; attempt++ {
		getResp, err := s.client.Get(ctx, key)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit: etcd get: %w", err)
		}

		now := time.Now()
		var rec etcdRecord
		var modRev int64
		if len(getResp.Kvs) > 0 {
			modRev = getResp.Kvs[0].ModRevision
			_ = json.Unmarshal(getResp.Kvs[0].Value, &rec)
		}
		if rec.WindowEnd.Before(now) {
			rec = etcdRecord{Amount: 0, WindowEnd: now.Add(window)}
		}
		rec.Amount += amount

		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit: marshal record: %w", err)
		}

		txn := s.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", modRev)).
			Then(clientv3.OpPut(key, string(payload)))

		txnResp, err := txn.Commit()
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit: etcd txn: %w", err)
		}
		if txnResp.Succeeded {
			return rec.Amount, rec.WindowEnd, nil
		}
		// Lost the race to a concurrent incrementer; retry with fresh state.
	}
	return 0, time.Time{}, fmt.Errorf("ratelimit: etcd increment for %s: too many conflicting writers", key)
}

func (s *EtcdStore) Reset(ctx context.Context, tenantID string) error {
	_, err := s.client.Delete(ctx, s.prefix+tenantID+"/", clientv3.WithPrefix())
	if err != nil {
		return fmt.Errorf("ratelimit: etcd reset: %w", err)
	}
	return nil
}

func (s *EtcdStore) DeleteExpired(ctx context.Context, before time.Time) error {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return fmt.Errorf("ratelimit: etcd scan: %w", err)
	}

	for _, kv := range resp.Kvs {
		var rec etcdRecord
		if json.Unmarshal(kv.Value, &rec) != nil {
			continue
		}
		if rec.WindowEnd.Before(before) {
			if _, err := s.client.Delete(ctx, string(kv.Key)); err != nil {
				return fmt.Errorf("ratelimit: etcd delete %s: %w", kv.Key, err)
			}
		}
	}
	return nil
}

func (s *EtcdStore) Close() error {
	return s.client.Close()
}

// tenantIDFromKey extracts the tenant id from a fully-qualified etcd key
// built by key.
func (s *EtcdStore) tenantIDFromKey(key string) string {
	rest := strings.TrimPrefix(key, s.prefix)
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

var _ Store = (*EtcdStore)(nil)
