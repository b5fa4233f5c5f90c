package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"koleksi/internal/models"
	"koleksi/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// GroupInput holds the writable fields of a group.
type GroupInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// GroupPatch holds a partial group update. Nil fields are left unchanged.
type GroupPatch struct {
	Name        *string
	Description *string
}

// GroupService handles business logic related to groups.
type GroupService struct {
	store    repositories.Store
	events   EventPublisher
	validate *validator.Validate
}

// NewGroupService creates a new GroupService. events may be nil.
func NewGroupService(store repositories.Store, events EventPublisher) *GroupService {
	return &GroupService{
		store:    store,
		events:   events,
		validate: newValidator(),
	}
}

// ListGroups returns every group owned by principal.
func (s *GroupService) ListGroups(ctx context.Context, principal models.Principal) ([]models.Group, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	groups, err := s.store.Groups().List(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns the principal's group with the given id.
func (s *GroupService) GetGroup(ctx context.Context, principal models.Principal, id string) (*models.Group, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	group, err := s.store.Groups().GetByID(ctx, principal.ID, id)
	if err != nil {
		return nil, storeError(err, "group", id)
	}
	return group, nil
}

// CreateGroup creates a group owned by principal.
func (s *GroupService) CreateGroup(ctx context.Context, principal models.Principal, input GroupInput) (*models.Group, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	input = normalizeGroupInput(input)
	if err := s.check(input); err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     principal.ID,
	}

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if err := ensureNameFree(ctx, tx, group); err != nil {
			return err
		}
		return tx.Groups().Create(ctx, group)
	})
	if err != nil {
		return nil, storeError(err, "group", group.Name)
	}

	publish(s.events, EventGroupCreated, groupEventData(group))
	return group, nil
}

// UpdateGroup applies patch to the principal's group.
func (s *GroupService) UpdateGroup(ctx context.Context, principal models.Principal, id string, patch GroupPatch) (*models.Group, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}

	var updated *models.Group
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		group, err := tx.Groups().GetByID(ctx, principal.ID, id)
		if err != nil {
			return err
		}

		input := GroupInput{Name: group.Name, Description: group.Description}
		if patch.Name != nil {
			input.Name = *patch.Name
		}
		if patch.Description != nil {
			input.Description = *patch.Description
		}
		input = normalizeGroupInput(input)
		if err := s.check(input); err != nil {
			return err
		}

		group.Name = input.Name
		group.Description = input.Description
		if err := ensureNameFree(ctx, tx, group); err != nil {
			return err
		}
		if err := tx.Groups().Update(ctx, group); err != nil {
			return err
		}
		updated, err = tx.Groups().GetByID(ctx, principal.ID, id)
		return err
	})
	if err != nil {
		return nil, storeError(err, "group", id)
	}

	publish(s.events, EventGroupUpdated, groupEventData(updated))
	return updated, nil
}

// DeleteGroup removes the principal's group. Collectibles in the group are kept
// and become ungrouped in the same transaction.
func (s *GroupService) DeleteGroup(ctx context.Context, principal models.Principal, id string) error {
	if principal.ID == "" {
		return ErrUnauthenticated
	}

	var detached int64
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Groups().GetByID(ctx, principal.ID, id); err != nil {
			return err
		}
		var err error
		detached, err = tx.Collectibles().ClearGroup(ctx, id)
		if err != nil {
			return err
		}
		return tx.Groups().Delete(ctx, principal.ID, id)
	})
	if err != nil {
		return storeError(err, "group", id)
	}

	publish(s.events, EventGroupDeleted, map[string]interface{}{
		"id":       id,
		"owner_id": principal.ID,
		"detached": detached,
	})
	return nil
}

func (s *GroupService) check(input GroupInput) error {
	verr := &ValidationError{}
	checkStruct(s.validate, input, verr)
	return verr.OrNil()
}

// ensureNameFree fails with ErrConflict if another group of the same owner already uses group.Name.
func ensureNameFree(ctx context.Context, tx repositories.Store, group *models.Group) error {
	existing, err := tx.Groups().GetByName(ctx, group.OwnerID, group.Name)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != group.ID:
		return fmt.Errorf("group named %q already exists: %w", group.Name, ErrConflict)
	default:
		return nil
	}
}

func normalizeGroupInput(input GroupInput) GroupInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func groupEventData(group *models.Group) map[string]interface{} {
	return map[string]interface{}{
		"id":       group.ID,
		"owner_id": group.OwnerID,
		"name":     group.Name,
	}
}
