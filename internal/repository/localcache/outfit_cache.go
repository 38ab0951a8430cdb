package localcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/mapper"
)

// DefaultOutfitsKey is where saved outfits live when no key is configured.
const DefaultOutfitsKey = "outfit-stylist:saved-outfits"

// OutfitCache stores the local-only outfit list as one JSON array under a single key.
type OutfitCache struct {
	store  Store
	key    string
	mapper *mapper.OutfitMapper
}

func NewOutfitCache(store Store, key string) *OutfitCache {
	if key == "" {
		key = DefaultOutfitsKey
	}
	return &OutfitCache{
		store:  store,
		key:    key,
		mapper: mapper.NewOutfitMapper(),
	}
}

func decode(raw []byte) ([]*dto.OutfitResponse, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []*dto.OutfitResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode local outfits: %w", err)
	}
	return list, nil
}

func (c *OutfitCache) ReadAll(ctx context.Context) ([]*entity.OutfitRecord, error) {
	raw, err := c.store.Read(ctx, c.key)
	if err != nil {
		return nil, err
	}
	list, err := decode(raw)
	if err != nil {
		return nil, err
	}

	records := make([]*entity.OutfitRecord, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		records = append(records, c.mapper.FromResponse(item))
	}
	return records, nil
}

// FindBySession scans the list and returns the session's records, newest first.
func (c *OutfitCache) FindBySession(ctx context.Context, sessionId string) ([]*entity.OutfitRecord, error) {
	all, err := c.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*entity.OutfitRecord, 0, len(all))
	for _, r := range all {
		if r.SessionId == sessionId {
			records = append(records, r)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (c *OutfitCache) Append(ctx context.Context, record *entity.OutfitRecord) error {
	item := c.mapper.ToResponse(record)
	return c.store.Update(ctx, c.key, func(current []byte) ([]byte, error) {
		list, err := decode(current)
		if err != nil {
			return nil, err
		}
		for _, existing := range list {
			if existing != nil && existing.Id == item.Id {
				return nil, fmt.Errorf("local outfit %s already exists", item.Id)
			}
		}
		return json.Marshal(append(list, item))
	})
}

// Remove deletes the record with id and reports whether it was present.
func (c *OutfitCache) Remove(ctx context.Context, id string) (bool, error) {
	removed := false
	err := c.store.Update(ctx, c.key, func(current []byte) ([]byte, error) {
		removed = false
		list, err := decode(current)
		if err != nil {
			return nil, err
		}
		kept := make([]*dto.OutfitResponse, 0, len(list))
		for _, item := range list {
			if item != nil && item.Id == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		return json.Marshal(kept)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}
