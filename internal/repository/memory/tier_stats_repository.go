package memory

import (
	"sort"
	"sync"
	"time"

	"outfit-stylist-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

type TierStatsRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewTierStatsRepository() *TierStatsRepository {
	// Stats are only interesting while the process is warm; an operation that
	// has not been called for a day drops out.
	c := cache.New(24*time.Hour, time.Hour)
	return &TierStatsRepository{
		cache: c,
	}
}

// Record counts one attempt of tier for operation.
func (r *TierStatsRepository) Record(operation, tier string, success bool, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stat := &entity.TierStat{
		Operation: operation,
		Served:    map[string]int64{},
		Failed:    map[string]int64{},
	}
	if x, found := r.cache.Get(operation); found {
		stat = x.(*entity.TierStat)
	}

	if success {
		stat.Served[tier]++
		stat.LastTier = tier
		stat.LastServedAt = at
	} else {
		stat.Failed[tier]++
	}
	r.cache.Set(operation, stat, cache.DefaultExpiration)
}

func (r *TierStatsRepository) Get(operation string) (*entity.TierStat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(operation); found {
		return copyStat(x.(*entity.TierStat)), true
	}
	return nil, false
}

// Snapshot returns copies of every operation's stats ordered by operation name.
func (r *TierStatsRepository) Snapshot() []*entity.TierStat {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cache.Items()
	stats := make([]*entity.TierStat, 0, len(items))
	for _, item := range items {
		stats = append(stats, copyStat(item.Object.(*entity.TierStat)))
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Operation < stats[j].Operation
	})
	return stats
}

func copyStat(s *entity.TierStat) *entity.TierStat {
	c := *s
	c.Served = make(map[string]int64, len(s.Served))
	for k, v := range s.Served {
		c.Served[k] = v
	}
	c.Failed = make(map[string]int64, len(s.Failed))
	for k, v := range s.Failed {
		c.Failed[k] = v
	}
	return &c
}
