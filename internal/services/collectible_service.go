package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"koleksi/internal/models"
	"koleksi/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultMaxImageBytes caps uploads when no explicit limit is configured.
const DefaultMaxImageBytes = 5 * 1024 * 1024

// imagePrefix is the blob key prefix images are stored under.
const imagePrefix = "collectibles"

// BlobStore persists image bytes outside the database. *blobstore.Store implements it.
type BlobStore interface {
	Put(ctx context.Context, prefix, filename string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// CollectibleInput holds the writable fields of a collectible as received at the boundary.
// Group is a group id; empty means ungrouped.
type CollectibleInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	Description     string `json:"description" validate:"required"`
	AcquisitionDate string `json:"acquisition_date" validate:"required,datetime=2006-01-02"`
	EstimatedValue  string `json:"estimated_value" validate:"required,money"`
	Condition       string `json:"condition" validate:"required,oneof=mint excellent good fair poor"`
	Group           string `json:"group"`
}

// CollectiblePatch holds a partial collectible update. Nil fields are left unchanged;
// a non-nil empty Group clears the group.
type CollectiblePatch struct {
	Name            *string
	Description     *string
	AcquisitionDate *string
	EstimatedValue  *string
	Condition       *string
	Group           *string
}

// CollectibleFilter narrows ListCollectibles. An empty GroupID lists everything.
type CollectibleFilter struct {
	GroupID string
}

// CollectibleService handles business logic related to collectibles.
type CollectibleService struct {
	store         repositories.Store
	blobs         BlobStore
	events        EventPublisher
	maxImageBytes int
	validate      *validator.Validate
}

// NewCollectibleService creates a new CollectibleService. events may be nil;
// maxImageBytes <= 0 selects DefaultMaxImageBytes.
func NewCollectibleService(store repositories.Store, blobs BlobStore, events EventPublisher, maxImageBytes int) *CollectibleService {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &CollectibleService{
		store:         store,
		blobs:         blobs,
		events:        events,
		maxImageBytes: maxImageBytes,
		validate:      newValidator(),
	}
}

// ListCollectibles returns the principal's collectibles, optionally only those in one group.
func (s *CollectibleService) ListCollectibles(ctx context.Context, principal models.Principal, filter CollectibleFilter) ([]models.Collectible, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	collectibles, err := s.store.Collectibles().List(ctx, principal.ID, repositories.CollectibleFilter{
		GroupID: strings.TrimSpace(filter.GroupID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collectibles: %w", err)
	}
	for i := range collectibles {
		s.decorate(&collectibles[i])
	}
	return collectibles, nil
}

// GetCollectible returns the principal's collectible with the given id.
func (s *CollectibleService) GetCollectible(ctx context.Context, principal models.Principal, id string) (*models.Collectible, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	collectible, err := s.store.Collectibles().GetByID(ctx, principal.ID, id)
	if err != nil {
		return nil, storeError(err, "collectible", id)
	}
	s.decorate(collectible)
	return collectible, nil
}

// CreateCollectible creates a collectible owned by principal, storing upload as its image.
func (s *CollectibleService) CreateCollectible(ctx context.Context, principal models.Principal, input CollectibleInput, upload *Upload) (*models.Collectible, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	input = normalizeCollectibleInput(input)

	verr := &ValidationError{}
	checkStruct(s.validate, input, verr)
	checkUpload(upload, s.maxImageBytes, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	collectible := &models.Collectible{
		ID:      uuid.New().String(),
		OwnerID: principal.ID,
	}
	if err := applyInput(collectible, input, allCollectibleFields); err != nil {
		return nil, err
	}

	newKey, err := s.storeImage(ctx, upload)
	if err != nil {
		return nil, err
	}
	collectible.ImageKey = newKey

	var created *models.Collectible
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		if collectible.GroupID != nil {
			if err := checkGroup(ctx, tx, principal, *collectible.GroupID); err != nil {
				return err
			}
		}
		if err := tx.Collectibles().Create(ctx, collectible); err != nil {
			return err
		}
		var err error
		created, err = tx.Collectibles().GetByID(ctx, principal.ID, collectible.ID)
		return err
	})
	if err != nil {
		s.discardImage(ctx, newKey)
		return nil, storeError(err, "collectible", collectible.ID)
	}

	s.decorate(created)
	publish(s.events, EventCollectibleCreated, collectibleEventData(created))
	return created, nil
}

// UpdateCollectible applies patch to the principal's collectible. A non-nil upload
// replaces the image; the previous image is removed once the change is committed.
func (s *CollectibleService) UpdateCollectible(ctx context.Context, principal models.Principal, id string, patch CollectiblePatch, upload *Upload) (*models.Collectible, error) {
	if principal.ID == "" {
		return nil, ErrUnauthenticated
	}

	verr := &ValidationError{}
	checkUpload(upload, s.maxImageBytes, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var (
		updated *models.Collectible
		newKey  string
		oldKey  string
	)
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		collectible, err := tx.Collectibles().GetByID(ctx, principal.ID, id)
		if err != nil {
			return err
		}

		input, changed := mergePatch(inputFrom(collectible), patch)
		input = normalizeCollectibleInput(input)
		checkStruct(s.validate, input, verr)
		if err := verr.OrNil(); err != nil {
			return err
		}
		if err := applyInput(collectible, input, changed); err != nil {
			return err
		}
		if changed.group && collectible.GroupID != nil {
			if err := checkGroup(ctx, tx, principal, *collectible.GroupID); err != nil {
				return err
			}
		}

		if upload != nil {
			newKey, err = s.storeImage(ctx, upload)
			if err != nil {
				return err
			}
			oldKey = collectible.ImageKey
			collectible.ImageKey = newKey
		}

		collectible.Group = nil
		if err := tx.Collectibles().Update(ctx, collectible); err != nil {
			return err
		}
		updated, err = tx.Collectibles().GetByID(ctx, principal.ID, id)
		return err
	})
	if err != nil {
		s.discardImage(ctx, newKey)
		return nil, storeError(err, "collectible", id)
	}

	s.discardImage(ctx, oldKey)
	s.decorate(updated)
	publish(s.events, EventCollectibleUpdated, collectibleEventData(updated))
	return updated, nil
}

// DeleteCollectible removes the principal's collectible and then its image.
func (s *CollectibleService) DeleteCollectible(ctx context.Context, principal models.Principal, id string) error {
	if principal.ID == "" {
		return ErrUnauthenticated
	}

	var imageKey string
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		collectible, err := tx.Collectibles().GetByID(ctx, principal.ID, id)
		if err != nil {
			return err
		}
		imageKey = collectible.ImageKey
		return tx.Collectibles().Delete(ctx, principal.ID, id)
	})
	if err != nil {
		return storeError(err, "collectible", id)
	}

	s.discardImage(ctx, imageKey)
	publish(s.events, EventCollectibleDeleted, map[string]interface{}{
		"id":       id,
		"owner_id": principal.ID,
	})
	return nil
}

// decorate fills the derived read-only fields.
func (s *CollectibleService) decorate(c *models.Collectible) {
	c.GroupName = nil
	if c.Group != nil && c.Group.OwnerID == c.OwnerID {
		name := c.Group.Name
		c.GroupName = &name
	}
	c.ImageURL = nil
	if c.ImageKey != "" && s.blobs != nil {
		u := s.blobs.URL(c.ImageKey)
		c.ImageURL = &u
	}
}

func (s *CollectibleService) storeImage(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil {
		return "", nil
	}
	if s.blobs == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	key, err := s.blobs.Put(ctx, imagePrefix, upload.Filename, upload.Data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

// discardImage removes a blob that is no longer referenced. Failures only leave an orphan behind.
func (s *CollectibleService) discardImage(ctx context.Context, key string) {
	if key == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Printf("Failed to remove image %s: %v", key, err)
	}
}

// checkGroup requires groupID to name a group owned by principal. Foreign and
// missing groups are reported identically.
func checkGroup(ctx context.Context, tx repositories.Store, principal models.Principal, groupID string) error {
	_, err := tx.Groups().GetByID(ctx, principal.ID, groupID)
	if errors.Is(err, repositories.ErrNotFound) {
		verr := &ValidationError{}
		verr.Add("group", fmt.Sprintf("Invalid pk %q - object does not exist.", groupID))
		return verr
	}
	return err
}

// collectibleFields records which inputs a write touches.
type collectibleFields struct {
	name, description, acquisitionDate, estimatedValue, condition, group bool
}

var allCollectibleFields = collectibleFields{true, true, true, true, true, true}

// inputFrom renders a stored collectible back into boundary form.
func inputFrom(c *models.Collectible) CollectibleInput {
	input := CollectibleInput{
		Name:            c.Name,
		Description:     c.Description,
		AcquisitionDate: c.AcquisitionDate.String(),
		EstimatedValue:  c.EstimatedValue.StringFixed(2),
		Condition:       string(c.Condition),
	}
	if c.GroupID != nil {
		input.Group = *c.GroupID
	}
	return input
}

func mergePatch(input CollectibleInput, patch CollectiblePatch) (CollectibleInput, collectibleFields) {
	var changed collectibleFields
	if patch.Name != nil {
		input.Name, changed.name = *patch.Name, true
	}
	if patch.Description != nil {
		input.Description, changed.description = *patch.Description, true
	}
	if patch.AcquisitionDate != nil {
		input.AcquisitionDate, changed.acquisitionDate = *patch.AcquisitionDate, true
	}
	if patch.EstimatedValue != nil {
		input.EstimatedValue, changed.estimatedValue = *patch.EstimatedValue, true
	}
	if patch.Condition != nil {
		input.Condition, changed.condition = *patch.Condition, true
	}
	if patch.Group != nil {
		input.Group, changed.group = *patch.Group, true
	}
	return input, changed
}

// applyInput copies the selected, already validated fields of input onto c.
func applyInput(c *models.Collectible, input CollectibleInput, fields collectibleFields) error {
	verr := &ValidationError{}
	if fields.name {
		c.Name = input.Name
	}
	if fields.description {
		c.Description = input.Description
	}
	if fields.acquisitionDate {
		date, err := models.ParseDate(input.AcquisitionDate)
		if err != nil {
			verr.Add("acquisition_date", "Date has wrong format. Use YYYY-MM-DD.")
		}
		c.AcquisitionDate = date
	}
	if fields.estimatedValue {
		value, err := parseMoney(input.EstimatedValue)
		if err != nil {
			verr.Add("estimated_value", "A valid number is required.")
		}
		c.EstimatedValue = value
	}
	if fields.condition {
		condition := models.Condition(input.Condition)
		if !condition.Valid() {
			verr.Add("condition", fmt.Sprintf("%q is not a valid choice.", input.Condition))
		}
		c.Condition = condition
	}
	if fields.group {
		c.GroupID = nil
		if input.Group != "" {
			groupID := input.Group
			c.GroupID = &groupID
		}
	}
	return verr.OrNil()
}

func normalizeCollectibleInput(input CollectibleInput) CollectibleInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.AcquisitionDate = strings.TrimSpace(input.AcquisitionDate)
	input.EstimatedValue = strings.TrimSpace(input.EstimatedValue)
	input.Condition = strings.TrimSpace(input.Condition)
	input.Group = strings.TrimSpace(input.Group)
	return input
}

func collectibleEventData(c *models.Collectible) map[string]interface{} {
	data := map[string]interface{}{
		"id":        c.ID,
		"owner_id":  c.OwnerID,
		"name":      c.Name,
		"condition": string(c.Condition),
	}
	if c.GroupID != nil {
		data["group_id"] = *c.GroupID
	}
	return data
}
