package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"koleksi/internal/models"
)

// MemoryStore is an in-memory implementation of Store, used when no database is configured.
type MemoryStore struct {
	data *memoryData
	// txMu serializes transactions; writes outside a transaction still take data.mu.
	txMu *sync.Mutex
}

type memoryData struct {
	mu           sync.RWMutex
	groups       map[string]models.Group
	collectibles map[string]models.Collectible
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			groups:       make(map[string]models.Group),
			collectibles: make(map[string]models.Collectible),
		},
		txMu: &sync.Mutex{},
	}
}

func (s *MemoryStore) Groups() GroupRepository { return &memoryGroupRepository{data: s.data} }

func (s *MemoryStore) Collectibles() CollectibleRepository {
	return &memoryCollectibleRepository{data: s.data}
}

// Transaction runs fn and restores the previous contents if it fails.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	groups, collectibles := s.data.snapshot()
	tx := &MemoryStore{data: s.data, txMu: &sync.Mutex{}}
	if err := fn(tx); err != nil {
		s.data.restore(groups, collectibles)
		return err
	}
	return nil
}

func (d *memoryData) snapshot() (map[string]models.Group, map[string]models.Collectible) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	groups := make(map[string]models.Group, len(d.groups))
	for id, g := range d.groups {
		groups[id] = g
	}
	collectibles := make(map[string]models.Collectible, len(d.collectibles))
	for id, c := range d.collectibles {
		collectibles[id] = c
	}
	return groups, collectibles
}

func (d *memoryData) restore(groups map[string]models.Group, collectibles map[string]models.Collectible) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups = groups
	d.collectibles = collectibles
}

type memoryGroupRepository struct {
	data *memoryData
}

func (r *memoryGroupRepository) List(ctx context.Context, ownerID string) ([]models.Group, error) {
	r.data.mu.RLock()
	defer r.data.mu.RUnlock()

	groupList := make([]models.Group, 0)
	for _, g := range r.data.groups {
		if g.OwnerID == ownerID {
			groupList = append(groupList, g)
		}
	}
	sort.Slice(groupList, func(i, j int) bool {
		if groupList[i].Name != groupList[j].Name {
			return groupList[i].Name < groupList[j].Name
		}
		return groupList[i].ID < groupList[j].ID
	})
	return groupList, nil
}

func (r *memoryGroupRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Group, error) {
	r.data.mu.RLock()
	defer r.data.mu.RUnlock()

	g, ok := r.data.groups[id]
	if !ok || g.OwnerID != ownerID {
		return nil, fmt.Errorf("group with ID %s: %w", id, ErrNotFound)
	}
	return &g, nil
}

func (r *memoryGroupRepository) GetByName(ctx context.Context, ownerID, name string) (*models.Group, error) {
	r.data.mu.RLock()
	defer r.data.mu.RUnlock()

	for _, g := range r.data.groups {
		if g.OwnerID == ownerID && g.Name == name {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("group named %q: %w", name, ErrNotFound)
}

func (r *memoryGroupRepository) Create(ctx context.Context, group *models.Group) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if _, exists := r.data.groups[group.ID]; exists {
		return fmt.Errorf("group with ID %s: %w", group.ID, ErrDuplicate)
	}
	if r.nameTakenLocked(group) {
		return fmt.Errorf("group named %q: %w", group.Name, ErrDuplicate)
	}
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now
	r.data.groups[group.ID] = *group
	return nil
}

func (r *memoryGroupRepository) Update(ctx context.Context, group *models.Group) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	existing, ok := r.data.groups[group.ID]
	if !ok || existing.OwnerID != group.OwnerID {
		return fmt.Errorf("group with ID %s not found for update: %w", group.ID, ErrNotFound)
	}
	if r.nameTakenLocked(group) {
		return fmt.Errorf("group named %q: %w", group.Name, ErrDuplicate)
	}
	existing.Name = group.Name
	existing.Description = group.Description
	existing.UpdatedAt = time.Now()
	r.data.groups[group.ID] = existing
	*group = existing
	return nil
}

func (r *memoryGroupRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	g, ok := r.data.groups[id]
	if !ok || g.OwnerID != ownerID {
		return fmt.Errorf("group with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	delete(r.data.groups, id)
	return nil
}

func (r *memoryGroupRepository) nameTakenLocked(group *models.Group) bool {
	for id, g := range r.data.groups {
		if id != group.ID && g.OwnerID == group.OwnerID && g.Name == group.Name {
			return true
		}
	}
	return false
}

type memoryCollectibleRepository struct {
	data *memoryData
}

func (r *memoryCollectibleRepository) List(ctx context.Context, ownerID string, filter CollectibleFilter) ([]models.Collectible, error) {
	r.data.mu.RLock()
	defer r.data.mu.RUnlock()

	collectibleList := make([]models.Collectible, 0)
	for _, c := range r.data.collectibles {
		if c.OwnerID != ownerID {
			continue
		}
		if filter.GroupID != "" && (c.GroupID == nil || *c.GroupID != filter.GroupID) {
			continue
		}
		collectibleList = append(collectibleList, r.withGroupLocked(c))
	}
	sort.Slice(collectibleList, func(i, j int) bool {
		if c := strings.Compare(collectibleList[i].Name, collectibleList[j].Name); c != 0 {
			return c < 0
		}
		return collectibleList[i].ID < collectibleList[j].ID
	})
	return collectibleList, nil
}

func (r *memoryCollectibleRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Collectible, error) {
	r.data.mu.RLock()
	defer r.data.mu.RUnlock()

	c, ok := r.data.collectibles[id]
	if !ok || c.OwnerID != ownerID {
		return nil, fmt.Errorf("collectible with ID %s: %w", id, ErrNotFound)
	}
	c = r.withGroupLocked(c)
	return &c, nil
}

func (r *memoryCollectibleRepository) Create(ctx context.Context, collectible *models.Collectible) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if _, exists := r.data.collectibles[collectible.ID]; exists {
		return fmt.Errorf("collectible with ID %s: %w", collectible.ID, ErrDuplicate)
	}
	now := time.Now()
	collectible.CreatedAt = now
	collectible.UpdatedAt = now
	stored := *collectible
	stored.Group = nil
	stored.GroupID = cloneString(collectible.GroupID)
	r.data.collectibles[collectible.ID] = stored
	return nil
}

func (r *memoryCollectibleRepository) Update(ctx context.Context, collectible *models.Collectible) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	existing, ok := r.data.collectibles[collectible.ID]
	if !ok || existing.OwnerID != collectible.OwnerID {
		return fmt.Errorf("collectible with ID %s not found for update: %w", collectible.ID, ErrNotFound)
	}
	stored := *collectible
	stored.Group = nil
	stored.GroupID = cloneString(collectible.GroupID)
	stored.OwnerID = existing.OwnerID
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	r.data.collectibles[collectible.ID] = stored
	collectible.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memoryCollectibleRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	c, ok := r.data.collectibles[id]
	if !ok || c.OwnerID != ownerID {
		return fmt.Errorf("collectible with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	delete(r.data.collectibles, id)
	return nil
}

func (r *memoryCollectibleRepository) ClearGroup(ctx context.Context, groupID string) (int64, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	var cleared int64
	for id, c := range r.data.collectibles {
		if c.GroupID != nil && *c.GroupID == groupID {
			c.GroupID = nil
			r.data.collectibles[id] = c
			cleared++
		}
	}
	return cleared, nil
}

// withGroupLocked attaches the referenced group the way a preload would.
func (r *memoryCollectibleRepository) withGroupLocked(c models.Collectible) models.Collectible {
	c.Group = nil
	if c.GroupID != nil {
		if g, ok := r.data.groups[*c.GroupID]; ok {
			c.Group = &g
		}
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
