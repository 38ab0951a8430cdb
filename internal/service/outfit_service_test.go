package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/repository/contract"
	"outfit-stylist-be/internal/repository/localcache"
	"outfit-stylist-be/internal/repository/specification"
	"outfit-stylist-be/internal/repository/unitofwork"
	"outfit-stylist-be/pkg/events"
	"outfit-stylist-be/pkg/gateway"
	"outfit-stylist-be/pkg/stylist"
	"outfit-stylist-be/pkg/tier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// --- fakes ---

type fakeFunctions struct {
	mu       sync.Mutex
	calls    []string
	handlers map[string]func(payload any) (any, error)
}

func newFakeFunctions() *fakeFunctions {
	return &fakeFunctions{handlers: map[string]func(payload any) (any, error){}}
}

func (f *fakeFunctions) handle(name string, h func(payload any) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
}

func (f *fakeFunctions) Invoke(ctx context.Context, name string, payload any, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	h, ok := f.handlers[name]
	f.mu.Unlock()

	if !ok {
		return errors.New("function " + name + " unreachable")
	}
	res, err := h(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeFunctions) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

type fakeAnalyzer struct {
	payload *dto.AnalysisPayload
	err     error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, oc entity.OutfitContext) (*dto.AnalysisPayload, error) {
	return a.payload, a.err
}

type fakeOutfitRepository struct {
	mu      sync.Mutex
	records map[string]*entity.OutfitRecord
	err     error

	// taken makes the next N id lookups report an existing row.
	taken   int
	lookups int
	commits int
}

// stage returns a repository view whose creates only land on commit.
func (r *fakeOutfitRepository) stage() *stagedOutfitRepository {
	return &stagedOutfitRepository{fakeOutfitRepository: r}
}

func (r *fakeOutfitRepository) Create(ctx context.Context, outfit *entity.OutfitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records[outfit.Id] = outfit.Clone()
	return nil
}

func (r *fakeOutfitRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.records[id]
	delete(r.records, id)
	return ok, nil
}

func (r *fakeOutfitRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OutfitRecord, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			r.mu.Lock()
			r.lookups++
			hit := r.taken > 0
			if hit {
				r.taken--
			}
			r.mu.Unlock()
			if hit {
				return &entity.OutfitRecord{Id: byID.ID}, nil
			}
		}
	}
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeOutfitRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OutfitRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	var out []*entity.OutfitRecord
	for _, rec := range r.records {
		keep := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.BySession:
				keep = keep && rec.SessionId == s.SessionID
			case specification.ByID:
				keep = keep && rec.Id == s.ID
			case specification.SavedOnly:
				keep = keep && rec.Saved
			}
		}
		if keep {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type stagedOutfitRepository struct {
	*fakeOutfitRepository
	created []*entity.OutfitRecord
}

func (r *stagedOutfitRepository) Create(ctx context.Context, outfit *entity.OutfitRecord) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, outfit.Clone())
	return nil
}

type fakeUnitOfWork struct {
	repo   *fakeOutfitRepository
	staged *stagedOutfitRepository
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if u.staged != nil {
		return errors.New("transaction already started")
	}
	u.staged = u.repo.stage()
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if u.staged == nil {
		return errors.New("no transaction to commit")
	}
	u.repo.mu.Lock()
	for _, rec := range u.staged.created {
		u.repo.records[rec.Id] = rec
	}
	u.repo.commits++
	u.repo.mu.Unlock()
	u.staged = nil
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if u.staged == nil {
		return errors.New("no transaction to rollback")
	}
	u.staged = nil
	return nil
}

func (u *fakeUnitOfWork) OutfitRepository() contract.OutfitRepository {
	if u.staged != nil {
		return u.staged
	}
	return u.repo
}

type fakeRepositoryFactory struct {
	repo *fakeOutfitRepository
}

func newFakeRepositoryFactory() *fakeRepositoryFactory {
	return &fakeRepositoryFactory{repo: &fakeOutfitRepository{records: map[string]*entity.OutfitRecord{}}}
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

type fakeBucket struct {
	mu     sync.Mutex
	keys   []string
	failOn string
}

func (b *fakeBucket) Put(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	if b.failOn != "" && strings.Contains(key, b.failOn) {
		return "", errors.New("bucket rejected " + key)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakeEventPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// switchableStore fails every call while down.
type switchableStore struct {
	localcache.Store
	mu   sync.Mutex
	down bool
}

func (s *switchableStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *switchableStore) unreachable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errors.New("local cache unreachable")
	}
	return nil
}

func (s *switchableStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := s.unreachable(); err != nil {
		return nil, err
	}
	return s.Store.Read(ctx, key)
}

func (s *switchableStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	if err := s.unreachable(); err != nil {
		return err
	}
	return s.Store.Update(ctx, key, fn)
}

type fixedIndex int

func (i fixedIndex) Intn(n int) int { return int(i) % n }

// --- harness ---

type harness struct {
	functions *fakeFunctions
	analyzer  *fakeAnalyzer
	store     *fakeRepositoryFactory
	cache     *localcache.OutfitCache
	bucket    *fakeBucket
	events    *fakeEventPublisher
	timeout   time.Duration

	useStore    bool
	useAnalyzer bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sqlite, err := localcache.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return &harness{
		functions: newFakeFunctions(),
		analyzer:  &fakeAnalyzer{err: errors.New("model offline")},
		store:     newFakeRepositoryFactory(),
		cache:     localcache.NewOutfitCache(sqlite, ""),
		bucket:    &fakeBucket{},
		events:    &fakeEventPublisher{},
		timeout:   time.Second,
	}
}

func (h *harness) service() IOutfitService {
	var uowFactory unitofwork.RepositoryFactory
	if h.useStore {
		uowFactory = h.store
	}
	var analyzer gateway.Analyzer
	if h.useAnalyzer {
		analyzer = h.analyzer
	}
	return NewOutfitService(
		uowFactory,
		h.functions,
		analyzer,
		h.bucket,
		h.cache,
		stylist.NewSynthesizer(nil, fixedIndex(0)),
		nil,
		h.events,
		nil,
		nil,
		h.timeout,
	)
}

func fallContext(sessionId string, slots ...entity.Slot) entity.OutfitContext {
	oc := entity.OutfitContext{
		Session: entity.SessionContext{SessionId: sessionId, Season: entity.SeasonFall, Formality: entity.FormalityCasual},
	}
	for _, slot := range slots {
		oc.Images.Set(slot, "https://cdn.example.com/"+string(slot)+".png")
	}
	return oc
}

func saveRequest(sessionId string) *dto.SaveOutfitRequest {
	return &dto.SaveOutfitRequest{
		SessionId:     sessionId,
		BottomUrl:     "https://cdn.example.com/bottom.png",
		AiDescription: "Dark-wash jeans",
		Season:        "fall",
		Formality:     "casual",
		Aesthetic:     []string{"Cozy", "Earthy", "Laid-back"},
		Colors:        map[string]string{"bottom": "Olive", "top": "Rust"},
		Confidence:    0.5,
	}
}

// --- analyze ---

func TestAnalyze_FallsBackToSynthetic(t *testing.T) {
	tests := []struct {
		name     string
		analyzer *fakeAnalyzer
		enabled  bool
	}{
		{name: "no analyzer configured", enabled: false},
		{name: "analyzer errors", analyzer: &fakeAnalyzer{err: errors.New("503")}, enabled: true},
		{name: "analyzer returns empty payload", analyzer: &fakeAnalyzer{payload: &dto.AnalysisPayload{}}, enabled: true},
		{name: "analyzer returns nil payload", analyzer: &fakeAnalyzer{}, enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.useAnalyzer = tt.enabled
			if tt.analyzer != nil {
				h.analyzer = tt.analyzer
			}

			res, err := h.service().Analyze(context.Background(), fallContext("s1", entity.SlotBottom))

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(res.Outfit.Id, entity.SyntheticIdPrefix))
			assert.Equal(t, stylist.SyntheticConfidence, res.Outfit.Confidence)
			assert.False(t, res.Outfit.Saved)
			assert.NotEmpty(t, res.Analysis.Aesthetic)
		})
	}
}

func TestAnalyze_FallCasualBottomOnly(t *testing.T) {
	h := newHarness(t)

	res, err := h.service().Analyze(context.Background(), fallContext("s1", entity.SlotBottom))

	require.NoError(t, err)
	fall := stylist.DefaultCatalog().Season(entity.SeasonFall)
	assert.Empty(t, res.Analysis.Top)
	assert.Empty(t, res.Analysis.TopLayer)
	assert.Empty(t, res.Analysis.Shoes)
	assert.Contains(t, fall.Garments[entity.SlotBottom], res.Analysis.Bottom)
	assert.Equal(t, fall.Colors[2], res.Outfit.Colors["bottom"])
	assert.Len(t, res.Outfit.Colors, 1)
	assert.Empty(t, res.Outfit.AccessoriesTags)
	assert.Len(t, res.Outfit.Aesthetic, 3)
	assert.Equal(t, "s1", res.Outfit.SessionId)
	assert.Equal(t, "https://cdn.example.com/bottom.png", res.Outfit.BottomUrl)
}

func TestAnalyze_NoSlotsPopulated(t *testing.T) {
	h := newHarness(t)

	res, err := h.service().Analyze(context.Background(), fallContext("s1"))

	require.NoError(t, err)
	assert.Empty(t, res.Outfit.Colors)
	assert.Empty(t, res.Outfit.AiDescription)
	assert.NotEmpty(t, res.Outfit.Aesthetic)
}

func TestAnalyze_RemoteTierServes(t *testing.T) {
	h := newHarness(t)
	h.useAnalyzer = true
	h.analyzer = &fakeAnalyzer{payload: &dto.AnalysisPayload{
		Top:           "Oversized grey hoodie",
		Aesthetic:     []string{"Streetwear"},
		Colors:        map[string]string{"top": "Grey", "shoes": "White"},
		AiDescription: "Oversized grey hoodie",
		Season:        "Winter",
		Formality:     "sports",
		Confidence:    0.92,
	}}

	res, err := h.service().Analyze(context.Background(), fallContext("s1", entity.SlotTop))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Outfit.Id, entity.AnalysisIdPrefix))
	assert.Equal(t, "Oversized grey hoodie", res.Analysis.Top)
	assert.Equal(t, 0.92, res.Outfit.Confidence)
	assert.Equal(t, "Winter", res.Outfit.Season)
	assert.Equal(t, map[string]string{"top": "Grey"}, res.Outfit.Colors)
}

func TestAnalyze_RemotePayloadTrimmedToPopulatedSlots(t *testing.T) {
	h := newHarness(t)
	h.useAnalyzer = true
	h.analyzer = &fakeAnalyzer{payload: &dto.AnalysisPayload{
		Top:                    "Blazer",
		Bottom:                 "Chinos",
		Accessories:            []string{"Watch"},
		AccessoriesTags:        []string{"Watch"},
		AccessoriesDescription: "Add a watch.",
		Aesthetic:              []string{"Smart"},
		Colors:                 map[string]string{"top": "Navy", "bottom": "Blue", "accessories": "Silver"},
		AiDescription:          "Blazer over chinos",
		Confidence:             0.8,
	}}

	res, err := h.service().Analyze(context.Background(), fallContext("s1", entity.SlotBottom))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Outfit.Id, entity.AnalysisIdPrefix))
	assert.Empty(t, res.Analysis.Top)
	assert.Equal(t, "Chinos", res.Analysis.Bottom)
	assert.Equal(t, map[string]string{"bottom": "Blue"}, res.Analysis.Colors)
	assert.Equal(t, res.Outfit.Colors, res.Analysis.Colors)
	assert.Empty(t, res.Analysis.Accessories)
	assert.Empty(t, res.Analysis.AccessoriesTags)
	assert.Empty(t, res.Analysis.AccessoriesDescription)
	assert.Empty(t, res.Outfit.AccessoriesTags)
	assert.Equal(t, "Blazer over chinos", res.Analysis.AiDescription)

	// The analyzer's own payload is left untouched.
	assert.Equal(t, "Blazer", h.analyzer.payload.Top)
}

func TestAnalyze_RemoteDescribingOnlyEmptySlotsIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.useAnalyzer = true
	h.analyzer = &fakeAnalyzer{payload: &dto.AnalysisPayload{
		Top:    "Blazer",
		Colors: map[string]string{"top": "Navy"},
	}}

	res, err := h.service().Analyze(context.Background(), fallContext("s1", entity.SlotBottom))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Outfit.Id, entity.SyntheticIdPrefix))
	assert.Empty(t, res.Analysis.Top)
	assert.NotEmpty(t, res.Analysis.Bottom)
}

func TestAnalyze_RerollCreatesNewRecord(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	oc := fallContext("s1", entity.SlotTop)

	first, err := svc.Analyze(context.Background(), oc)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), oc)
	require.NoError(t, err)

	assert.NotEqual(t, first.Outfit.Id, second.Outfit.Id)
}

// --- save / fetchAll ---

func TestSave_GatewayDownFallsToLocal(t *testing.T) {
	h := newHarness(t)
	svc := h.service()

	saved, err := svc.Save(context.Background(), saveRequest("s1"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.Id, entity.LocalIdPrefix))
	assert.True(t, saved.Saved)
	assert.Equal(t, "Fall", saved.Season)
	assert.Equal(t, map[string]string{"bottom": "Olive"}, saved.Colors)

	list, err := svc.FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.Id, list[0].Id)
	assert.Equal(t, "Dark-wash jeans", list[0].AiDescription)

	other, err := svc.FetchAll(context.Background(), "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSave_StoreTierServesWhenFunctionFails(t *testing.T) {
	h := newHarness(t)
	h.useStore = true
	svc := h.service()

	saved, err := svc.Save(context.Background(), saveRequest("s1"))
	require.NoError(t, err)
	assert.Equal(t, entity.OriginBackend, entity.OriginOf(saved.Id))

	list, err := svc.FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.Id, list[0].Id)

	local, err := h.cache.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, local)
}

func TestSave_FunctionTierServes(t *testing.T) {
	h := newHarness(t)
	var stored []*dto.OutfitResponse
	var mu sync.Mutex
	h.functions.handle(gateway.FunctionSaveOutfit, func(payload any) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		rec := *payload.(*dto.OutfitResponse)
		assert.Empty(t, rec.Id)
		rec.Id = fmt.Sprintf("%08d-0000-0000-0000-000000000000", len(stored)+1)
		stored = append(stored, &rec)
		return rec, nil
	})
	h.functions.handle(gateway.FunctionListOutfits, func(payload any) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		return stored, nil
	})
	svc := h.service()

	saved, err := svc.Save(context.Background(), saveRequest("s1"))
	require.NoError(t, err)
	assert.Equal(t, "00000001-0000-0000-0000-000000000000", saved.Id)

	list, err := svc.FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.Id, list[0].Id)

	h.events.mu.Lock()
	defer h.events.mu.Unlock()
	require.Len(t, h.events.events, 1)
	assert.Equal(t, events.OutfitSaved, h.events.events[0].EventType())
	assert.Equal(t, TierFunction, h.events.events[0].Payload()["tier"])
}

func TestSave_FunctionReturningLocalIdIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.functions.handle(gateway.FunctionSaveOutfit, func(payload any) (any, error) {
		return dto.OutfitResponse{Id: "local_abc"}, nil
	})

	saved, err := h.service().Save(context.Background(), saveRequest("s1"))

	require.NoError(t, err)
	assert.NotEqual(t, "local_abc", saved.Id)
	assert.True(t, strings.HasPrefix(saved.Id, entity.LocalIdPrefix))
}

func TestSave_ClosedLocalCacheStillSaves(t *testing.T) {
	h := newHarness(t)
	sqlite, err := localcache.NewSQLiteStore(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, sqlite.Close())
	h.cache = localcache.NewOutfitCache(sqlite, "")
	svc := h.service()

	saved, err := svc.Save(context.Background(), saveRequest("s1"))

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, strings.HasPrefix(saved.Id, entity.LocalIdPrefix))
	assert.True(t, saved.Saved)

	list, err := svc.FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.Id, list[0].Id)
}

func TestSave_HeldSavesSurviveLocalCacheRecovery(t *testing.T) {
	h := newHarness(t)
	sqlite, err := localcache.NewSQLiteStore(filepath.Join(t.TempDir(), "flaky.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	store := &switchableStore{Store: sqlite}
	h.cache = localcache.NewOutfitCache(store, "")
	svc := h.service()
	ctx := context.Background()

	store.setDown(true)
	held, err := svc.Save(ctx, saveRequest("s1"))
	require.NoError(t, err)

	store.setDown(false)
	durable, err := svc.Save(ctx, saveRequest("s1"))
	require.NoError(t, err)

	cached, err := h.cache.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, durable.Id, cached[0].Id)

	list, err := svc.FetchAll(ctx, "s1")
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, item := range list {
		ids = append(ids, item.Id)
	}
	assert.ElementsMatch(t, []string{held.Id, durable.Id}, ids)

	res, err := svc.Delete(ctx, held.Id)
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	list, err = svc.FetchAll(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, durable.Id, list[0].Id)
}

func TestSave_StoreTierCommitsOnce(t *testing.T) {
	h := newHarness(t)
	h.useStore = true

	saved, err := h.service().Save(context.Background(), saveRequest("s1"))

	require.NoError(t, err)
	assert.Equal(t, entity.OriginBackend, entity.OriginOf(saved.Id))
	assert.Equal(t, 1, h.store.repo.commits)
	assert.Equal(t, 1, h.store.repo.lookups)
	assert.Contains(t, h.store.repo.records, saved.Id)
}

func TestSave_StoreTierSkipsTakenIds(t *testing.T) {
	tests := []struct {
		name      string
		taken     int
		wantOrigin  entity.Origin
		wantCount int
	}{
		{name: "free after two collisions", taken: 2, wantOrigin: entity.OriginBackend, wantCount: 1},
		{name: "gives up after three collisions", taken: 3, wantOrigin: entity.OriginLocal, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.useStore = true
			h.store.repo.taken = tt.taken

			saved, err := h.service().Save(context.Background(), saveRequest("s1"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, entity.OriginOf(saved.Id))
			assert.Equal(t, 3, h.store.repo.lookups)
			assert.Equal(t, tt.wantCount, h.store.repo.commits)
			assert.Len(t, h.store.repo.records, tt.wantCount)
		})
	}
}

func TestFetchAll_NewestFirstAndNeverFails(t *testing.T) {
	h := newHarness(t)
	svc := h.service()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"local_a", "local_b", "local_c"} {
		require.NoError(t, h.cache.Append(context.Background(), &entity.OutfitRecord{
			Id:        id,
			SessionId: "s1",
			Saved:     true,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := svc.FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"local_c", "local_b", "local_a"}, []string{list[0].Id, list[1].Id, list[2].Id})

	broken := NewOutfitService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, 0)
	empty, err := broken.FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFetchAll_HungFunctionTierTimesOut(t *testing.T) {
	h := newHarness(t)
	h.timeout = 30 * time.Millisecond
	release := make(chan struct{})
	defer close(release)
	h.functions.handle(gateway.FunctionListOutfits, func(payload any) (any, error) {
		<-release
		return []*dto.OutfitResponse{}, nil
	})
	svc := h.service()
	require.NoError(t, h.cache.Append(context.Background(), &entity.OutfitRecord{Id: "local_x", SessionId: "s1", Saved: true}))

	start := time.Now()
	list, err := svc.FetchAll(context.Background(), "s1")

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "local_x", list[0].Id)
	assert.Less(t, time.Since(start), time.Second)
}

// --- delete ---

func TestDelete_LocalIdOnlyTouchesLocalCache(t *testing.T) {
	h := newHarness(t)
	h.useStore = true
	svc := h.service()
	require.NoError(t, h.cache.Append(context.Background(), &entity.OutfitRecord{Id: "local_1", SessionId: "s1", Saved: true}))

	res, err := svc.Delete(context.Background(), "local_1")

	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Zero(t, h.functions.called(gateway.FunctionDeleteOutfit))

	h.useStore = false
	list, err := h.service().FetchAll(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete_BackendIdNeverTouchesLocalCache(t *testing.T) {
	h := newHarness(t)
	h.useStore = true
	svc := h.service()
	backendId := "7d3e2a0c-5b1f-4f6e-9c2d-1a2b3c4d5e6f"
	require.NoError(t, h.cache.Append(context.Background(), &entity.OutfitRecord{Id: backendId, SessionId: "s1"}))
	require.NoError(t, h.store.repo.Create(context.Background(), &entity.OutfitRecord{Id: backendId, SessionId: "s1", Saved: true}))

	res, err := svc.Delete(context.Background(), backendId)

	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, 1, h.functions.called(gateway.FunctionDeleteOutfit))
	local, err := h.cache.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, local, 1)

	h.events.mu.Lock()
	defer h.events.mu.Unlock()
	require.Len(t, h.events.events, 1)
	assert.Equal(t, events.OutfitDeleted, h.events.events[0].EventType())
}

func TestDelete_ResolvesFalseWhenNothingHoldsIt(t *testing.T) {
	h := newHarness(t)
	svc := h.service()

	for _, id := range []string{"synthetic_1", "analysis_1", "local_missing", "7d3e2a0c-5b1f-4f6e-9c2d-1a2b3c4d5e6f"} {
		res, err := svc.Delete(context.Background(), id)
		require.NoError(t, err, id)
		assert.False(t, res.Deleted, id)
	}
	assert.Equal(t, 1, h.functions.called(gateway.FunctionDeleteOutfit))
}

func TestDelete_FunctionAnswerIsFinal(t *testing.T) {
	h := newHarness(t)
	h.useStore = true
	h.functions.handle(gateway.FunctionDeleteOutfit, func(payload any) (any, error) {
		assert.Equal(t, "abc", payload.(dto.DeleteOutfitFunctionRequest).Id)
		return dto.DeleteOutfitFunctionResponse{Deleted: true}, nil
	})

	res, err := h.service().Delete(context.Background(), "abc")

	require.NoError(t, err)
	assert.True(t, res.Deleted)
}

// --- upload ---

func TestUpload(t *testing.T) {
	h := newHarness(t)
	svc := h.service()

	res, err := svc.Upload(context.Background(), "sess/../1", &entity.ImageUpload{Category: "topLayer", Filename: "coat.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, "topLayer", res.Category)
	assert.True(t, strings.HasPrefix(res.Url, "https://cdn.example.com/sess____1/topLayer/"))
	assert.True(t, strings.HasSuffix(res.Url, ".png"))

	_, err = svc.Upload(context.Background(), "s1", &entity.ImageUpload{Category: "hat", Data: pngBytes})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = svc.Upload(context.Background(), "s1", &entity.ImageUpload{Category: "top", Data: []byte("just some text")})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	h.bucket.failOn = "/top/"
	_, err = svc.Upload(context.Background(), "s1", &entity.ImageUpload{Category: "top", Data: pngBytes})
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.ErrorIs(t, err, tier.ErrExhausted)
}

func TestUploadOutfit_PartialSuccess(t *testing.T) {
	h := newHarness(t)
	h.bucket.failOn = "/shoes/"
	svc := h.service()

	res, err := svc.UploadOutfit(context.Background(), "s1", []*entity.ImageUpload{
		{Category: entity.SlotTop, Data: pngBytes},
		{Category: entity.SlotShoes, Data: pngBytes},
		{Category: entity.SlotBottom, Data: pngBytes},
	})

	require.NoError(t, err)
	assert.Len(t, res.Images, 2)
	assert.Contains(t, res.Images, "top")
	assert.Contains(t, res.Images, "bottom")
	assert.Equal(t, []string{"shoes"}, res.Failed)
}

func TestUploadOutfit_AllFail(t *testing.T) {
	h := newHarness(t)
	h.bucket.failOn = "s1/"
	svc := h.service()

	_, err := svc.UploadOutfit(context.Background(), "s1", []*entity.ImageUpload{
		{Category: entity.SlotTop, Data: pngBytes},
		{Category: entity.SlotShoes, Data: pngBytes},
	})
	assert.ErrorIs(t, err, ErrUploadFailed)

	_, err = svc.UploadOutfit(context.Background(), "s1", []*entity.ImageUpload{
		{Category: entity.SlotTop, Data: pngBytes},
		{Category: entity.SlotTop, Data: pngBytes},
	})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

// --- presets ---

func TestPresets(t *testing.T) {
	h := newHarness(t)

	res := h.service().Presets(context.Background())

	require.Len(t, res.Seasons, 4)
	assert.Equal(t, "Spring", res.DefaultSeason)
	assert.Equal(t, []string{"casual", "semi-formal", "business-casual", "sports"}, res.Formalities)
}
