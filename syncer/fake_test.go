package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ddong19/ranked/outbox"
	"github.com/ddong19/ranked/record"
	"github.com/ddong19/ranked/remote"
	"github.com/ddong19/ranked/store"
)

type fixture struct {
	store   *store.Store
	queue   *outbox.Queue
	records *record.Service
	backend *fakeBackend
	drainer *Drainer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	q := outbox.NewQueue(st, nil)
	records := record.NewService(st, q, nil)
	backend := newFakeBackend()
	return &fixture{
		store:   st,
		queue:   q,
		records: records,
		backend: backend,
		drainer: NewDrainer(records, q, backend, "device-test", nil),
	}
}

// fakeBackend is an in-memory Backend with the semantics the drain
// relies on: creates deduplicated by client ref, deletes idempotent,
// updates of unknown items rejected. failAfter makes mutating calls
// start failing after that many have succeeded; block, when set, stalls
// every mutating call until the channel is closed.
type fakeBackend struct {
	mu        sync.Mutex
	nextID    int
	rankings  map[string]remote.RankingRecord
	items     map[string]remote.ItemRecord
	itemOf    map[string]string
	byRef     map[string]string
	preloaded []remote.RankingRecord
	failAfter int
	succeeded int
	block     chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rankings:  make(map[string]remote.RankingRecord),
		items:     make(map[string]remote.ItemRecord),
		itemOf:    make(map[string]string),
		byRef:     make(map[string]string),
		failAfter: -1,
	}
}

func (f *fakeBackend) gate() error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && f.succeeded >= f.failAfter {
		return errors.New("backend unavailable")
	}
	f.succeeded++
	return nil
}

func (f *fakeBackend) newID() string {
	f.nextID++
	return fmt.Sprintf("srv-%d", f.nextID)
}

func (f *fakeBackend) CreateRanking(_ context.Context, r remote.RankingRecord) (string, error) {
	if err := f.gate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ClientRef != "" {
		if id, ok := f.byRef[r.ClientRef]; ok {
			return id, nil
		}
	}
	id := f.newID()
	r.RemoteID = id
	r.Items = nil
	f.rankings[id] = r
	if r.ClientRef != "" {
		f.byRef[r.ClientRef] = id
	}
	return id, nil
}

func (f *fakeBackend) UpdateRanking(_ context.Context, remoteID string, r remote.RankingRecord) error {
	if err := f.gate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r.RemoteID = remoteID
	r.Items = nil
	f.rankings[remoteID] = r
	return nil
}

func (f *fakeBackend) DeleteRanking(_ context.Context, remoteID string) error {
	if err := f.gate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rankings, remoteID)
	for id, parent := range f.itemOf {
		if parent == remoteID {
			delete(f.items, id)
			delete(f.itemOf, id)
		}
	}
	return nil
}

func (f *fakeBackend) ListRankings(_ context.Context) ([]remote.RankingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.preloaded != nil {
		return f.preloaded, nil
	}
	var out []remote.RankingRecord
	for id, r := range f.rankings {
		for itemID, parent := range f.itemOf {
			if parent == id {
				it := f.items[itemID]
				it.RemoteID = itemID
				r.Items = append(r.Items, it)
			}
		}
		sort.Slice(r.Items, func(i, j int) bool { return r.Items[i].Rank < r.Items[j].Rank })
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeBackend) CreateItem(_ context.Context, rankingRemoteID string, it remote.ItemRecord) (string, error) {
	if err := f.gate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rankings[rankingRemoteID]; !ok {
		return "", fmt.Errorf("ranking %s not found", rankingRemoteID)
	}
	if it.ClientRef != "" {
		if id, ok := f.byRef[it.ClientRef]; ok {
			return id, nil
		}
	}
	id := f.newID()
	f.items[id] = it
	f.itemOf[id] = rankingRemoteID
	if it.ClientRef != "" {
		f.byRef[it.ClientRef] = id
	}
	return id, nil
}

func (f *fakeBackend) UpdateItem(_ context.Context, remoteID string, it remote.ItemRecord) error {
	if err := f.gate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[remoteID]; !ok {
		return fmt.Errorf("item %s not found", remoteID)
	}
	f.items[remoteID] = it
	return nil
}

func (f *fakeBackend) DeleteItem(_ context.Context, remoteID string) error {
	if err := f.gate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, remoteID)
	delete(f.itemOf, remoteID)
	return nil
}

func (f *fakeBackend) rankingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rankings)
}

func (f *fakeBackend) itemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

var _ remote.Backend = (*fakeBackend)(nil)

// fakeReachability flips between online and offline in tests.
type fakeReachability struct{ online bool }

func (f *fakeReachability) Online(context.Context) bool { return f.online }
