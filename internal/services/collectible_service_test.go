package services_test

import (
	"context"
	"strings"
	"testing"

	"koleksi/internal/models"
	"koleksi/internal/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validInput(name, groupID string) services.CollectibleInput {
	return services.CollectibleInput{
		Name:            name,
		Description:     "A fine piece",
		AcquisitionDate: "2020-01-01",
		EstimatedValue:  "45.00",
		Condition:       "excellent",
		Group:           groupID,
	}
}

type fixture struct {
	groups       *services.GroupService
	collectibles *services.CollectibleService
	fs           afero.Fs
}

func newFixture(t *testing.T) fixture {
	store := newSQLiteStore(t)
	blobs, fs := newMemBlobs()
	return fixture{
		groups:       services.NewGroupService(store, nil),
		collectibles: services.NewCollectibleService(store, blobs, nil, 1024),
		fs:           fs,
	}
}

func TestCollectibleService_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coins, err := f.groups.CreateGroup(ctx, alice, services.GroupInput{Name: "Coins"})
	require.NoError(t, err)

	dollar, err := f.collectibles.CreateCollectible(ctx, alice, services.CollectibleInput{
		Name:            "1921 Silver Dollar",
		Description:     "Morgan dollar",
		AcquisitionDate: "2020-01-01",
		EstimatedValue:  "45.00",
		Condition:       "excellent",
		Group:           coins.ID,
	}, nil)
	require.NoError(t, err)

	list, err := f.collectibles.ListCollectibles(ctx, alice, services.CollectibleFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].GroupName)
	assert.Equal(t, "Coins", *list[0].GroupName)
	assert.Nil(t, list[0].ImageURL)

	others, err := f.collectibles.ListCollectibles(ctx, bob, services.CollectibleFilter{})
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, f.groups.DeleteGroup(ctx, alice, coins.ID))

	got, err := f.collectibles.GetCollectible(ctx, alice, dollar.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.GroupName)
	assert.Equal(t, "1921 Silver Dollar", got.Name)
}

func TestCollectibleService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input := validInput("Mint coin", "")
	input.Condition = "mint"
	input.EstimatedValue = "123.45"
	created, err := f.collectibles.CreateCollectible(ctx, alice, input, nil)
	require.NoError(t, err)

	got, err := f.collectibles.GetCollectible(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConditionMint, got.Condition)
	assert.True(t, got.EstimatedValue.Equal(decimal.RequireFromString("123.45")), got.EstimatedValue.String())
	assert.Equal(t, "123.45", got.EstimatedValue.StringFixed(2))
	assert.Equal(t, "2020-01-01", got.AcquisitionDate.String())
	assert.Equal(t, alice.ID, got.OwnerID)
}

func TestCollectibleService_UpdateDescriptionOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coins, err := f.groups.CreateGroup(ctx, alice, services.GroupInput{Name: "Coins"})
	require.NoError(t, err)
	created, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", coins.ID),
		&services.Upload{Filename: "penny.png", Data: pngBytes})
	require.NoError(t, err)

	updated, err := f.collectibles.UpdateCollectible(ctx, alice, created.ID,
		services.CollectiblePatch{Description: strPtr("Slightly worn")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Slightly worn", updated.Description)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.AcquisitionDate.String(), updated.AcquisitionDate.String())
	assert.Equal(t, created.EstimatedValue.StringFixed(2), updated.EstimatedValue.StringFixed(2))
	assert.Equal(t, created.Condition, updated.Condition)
	assert.Equal(t, created.GroupID, updated.GroupID)
	assert.Equal(t, created.ImageKey, updated.ImageKey)
	assert.Equal(t, created.ImageURL, updated.ImageURL)
	assert.Equal(t, created.OwnerID, updated.OwnerID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
}

func TestCollectibleService_UpdateFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coins, err := f.groups.CreateGroup(ctx, alice, services.GroupInput{Name: "Coins"})
	require.NoError(t, err)
	created, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", ""), nil)
	require.NoError(t, err)

	updated, err := f.collectibles.UpdateCollectible(ctx, alice, created.ID, services.CollectiblePatch{
		Condition:      strPtr("poor"),
		EstimatedValue: strPtr("0.5"),
		Group:          strPtr(coins.ID),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ConditionPoor, updated.Condition)
	assert.Equal(t, "0.50", updated.EstimatedValue.StringFixed(2))
	require.NotNil(t, updated.GroupName)
	assert.Equal(t, "Coins", *updated.GroupName)

	cleared, err := f.collectibles.UpdateCollectible(ctx, alice, created.ID, services.CollectiblePatch{Group: strPtr("")}, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.GroupID)
	assert.Nil(t, cleared.GroupName)
}

func TestCollectibleService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		edit  func(*services.CollectibleInput)
		field string
	}{
		{"invalid condition", func(in *services.CollectibleInput) { in.Condition = "near_mint" }, "condition"},
		{"missing name", func(in *services.CollectibleInput) { in.Name = "" }, "name"},
		{"long name", func(in *services.CollectibleInput) { in.Name = strings.Repeat("n", 201) }, "name"},
		{"missing description", func(in *services.CollectibleInput) { in.Description = " " }, "description"},
		{"non-numeric value", func(in *services.CollectibleInput) { in.EstimatedValue = "lots" }, "estimated_value"},
		{"three decimals", func(in *services.CollectibleInput) { in.EstimatedValue = "1.234" }, "estimated_value"},
		{"too many digits", func(in *services.CollectibleInput) { in.EstimatedValue = "123456789.00" }, "estimated_value"},
		{"malformed date", func(in *services.CollectibleInput) { in.AcquisitionDate = "01/02/2020" }, "acquisition_date"},
		{"impossible date", func(in *services.CollectibleInput) { in.AcquisitionDate = "2020-02-30" }, "acquisition_date"},
		{"unknown group", func(in *services.CollectibleInput) { in.Group = "nope" }, "group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput("Penny", "")
			tt.edit(&input)

			_, err := f.collectibles.CreateCollectible(ctx, alice, input, nil)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	list, err := f.collectibles.ListCollectibles(ctx, alice, services.CollectibleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is persisted on validation failure")

	// The largest accepted value has eight integer digits.
	input := validInput("Vault", "")
	input.EstimatedValue = "99999999.99"
	_, err = f.collectibles.CreateCollectible(ctx, alice, input, nil)
	assert.NoError(t, err)
}

func TestCollectibleService_MoneyMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		value string
		want  string
	}{
		{"NaN", "A valid number is required."},
		{"1,5", "A valid number is required."},
		{"lots", "A valid number is required."},
		{"0.001", "Enter a number with at most 10 digits and 2 decimal places."},
		{"100000000", "Enter a number with at most 10 digits and 2 decimal places."},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			input := validInput("Penny", "")
			input.EstimatedValue = tt.value

			_, err := f.collectibles.CreateCollectible(ctx, alice, input, nil)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Fields["estimated_value"])
		})
	}
}

func TestCollectibleService_ForeignGroupRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bobsGroup, err := f.groups.CreateGroup(ctx, bob, services.GroupInput{Name: "Bob's coins"})
	require.NoError(t, err)

	_, err = f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", bobsGroup.ID), nil)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `Invalid pk "`+bobsGroup.ID+`" - object does not exist.`, verr.Fields["group"])
}

func TestCollectibleService_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	mine, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", ""), nil)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, mine.OwnerID)

	_, err = f.collectibles.GetCollectible(ctx, bob, mine.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.collectibles.UpdateCollectible(ctx, bob, mine.ID, services.CollectiblePatch{Name: strPtr("Stolen")}, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, f.collectibles.DeleteCollectible(ctx, bob, mine.ID), services.ErrNotFound)

	list, err := f.collectibles.ListCollectibles(ctx, bob, services.CollectibleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := f.collectibles.GetCollectible(ctx, alice, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Penny", got.Name)
}

func TestCollectibleService_GroupFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coins, err := f.groups.CreateGroup(ctx, alice, services.GroupInput{Name: "Coins"})
	require.NoError(t, err)
	bobsCoins, err := f.groups.CreateGroup(ctx, bob, services.GroupInput{Name: "Coins"})
	require.NoError(t, err)

	_, err = f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", coins.ID), nil)
	require.NoError(t, err)
	_, err = f.collectibles.CreateCollectible(ctx, alice, validInput("Poster", ""), nil)
	require.NoError(t, err)
	_, err = f.collectibles.CreateCollectible(ctx, bob, validInput("Nickel", bobsCoins.ID), nil)
	require.NoError(t, err)

	inCoins, err := f.collectibles.ListCollectibles(ctx, alice, services.CollectibleFilter{GroupID: coins.ID})
	require.NoError(t, err)
	require.Len(t, inCoins, 1)
	assert.Equal(t, "Penny", inCoins[0].Name)

	all, err := f.collectibles.ListCollectibles(ctx, alice, services.CollectibleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	foreign, err := f.collectibles.ListCollectibles(ctx, alice, services.CollectibleFilter{GroupID: bobsCoins.ID})
	require.NoError(t, err)
	assert.Empty(t, foreign)
}

func TestCollectibleService_DeleteGroupKeepsCollectibles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coins, err := f.groups.CreateGroup(ctx, alice, services.GroupInput{Name: "Coins"})
	require.NoError(t, err)
	stamps, err := f.groups.CreateGroup(ctx, alice, services.GroupInput{Name: "Stamps"})
	require.NoError(t, err)

	ids := []string{}
	for _, name := range []string{"Penny", "Dime", "Quarter"} {
		c, err := f.collectibles.CreateCollectible(ctx, alice, validInput(name, coins.ID), nil)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	stamp, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny Black", stamps.ID), nil)
	require.NoError(t, err)

	require.NoError(t, f.groups.DeleteGroup(ctx, alice, coins.ID))

	for _, id := range ids {
		c, err := f.collectibles.GetCollectible(ctx, alice, id)
		require.NoError(t, err)
		assert.Nil(t, c.GroupID)
	}
	all, err := f.collectibles.ListCollectibles(ctx, alice, services.CollectibleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	untouched, err := f.collectibles.GetCollectible(ctx, alice, stamp.ID)
	require.NoError(t, err)
	require.NotNil(t, untouched.GroupID)
	assert.Equal(t, stamps.ID, *untouched.GroupID)
}

func TestCollectibleService_Images(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", ""),
		&services.Upload{Filename: "penny.PNG", Data: pngBytes})
	require.NoError(t, err)
	require.NotNil(t, created.ImageURL)
	assert.True(t, strings.HasPrefix(*created.ImageURL, "http://media.test/media/collectibles/"))
	assert.True(t, strings.HasSuffix(*created.ImageURL, ".png"))
	exists, err := afero.Exists(f.fs, created.ImageKey)
	require.NoError(t, err)
	assert.True(t, exists)

	replaced, err := f.collectibles.UpdateCollectible(ctx, alice, created.ID, services.CollectiblePatch{},
		&services.Upload{Filename: "penny2.png", Data: pngBytes})
	require.NoError(t, err)
	assert.NotEqual(t, created.ImageKey, replaced.ImageKey)
	exists, _ = afero.Exists(f.fs, created.ImageKey)
	assert.False(t, exists, "replaced image is removed")

	require.NoError(t, f.collectibles.DeleteCollectible(ctx, alice, created.ID))
	exists, _ = afero.Exists(f.fs, replaced.ImageKey)
	assert.False(t, exists, "deleted collectible's image is removed")
}

func TestCollectibleService_ImageValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		upload *services.Upload
	}{
		{"empty", &services.Upload{Filename: "a.png"}},
		{"not an image", &services.Upload{Filename: "a.png", Data: []byte("hello there, plain text")}},
		{"too large", &services.Upload{Filename: "a.png", Data: append(append([]byte{}, pngBytes...), make([]byte, 2048)...)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", ""), tt.upload)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "image")
		})
	}

	files, err := afero.ReadDir(f.fs, "collectibles")
	if err == nil {
		assert.Empty(t, files, "rejected uploads are never written")
	}
}

func TestCollectibleService_FailedCreateDiscardsImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.collectibles.CreateCollectible(ctx, alice, validInput("Penny", "missing-group"),
		&services.Upload{Filename: "a.png", Data: pngBytes})
	require.Error(t, err)

	files, err := afero.ReadDir(f.fs, "collectibles")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollectibleService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	blobs, _ := newMemBlobs()
	events := new(MockEventPublisher)
	service := services.NewCollectibleService(newSQLiteStore(t), blobs, events, 0)

	events.On("PublishInventoryEvent", services.EventCollectibleCreated, mock.AnythingOfType("map[string]interface {}")).Return(nil).Once()
	events.On("PublishInventoryEvent", services.EventCollectibleDeleted, mock.AnythingOfType("map[string]interface {}")).Return(nil).Once()

	created, err := service.CreateCollectible(ctx, alice, validInput("Penny", ""), nil)
	require.NoError(t, err)
	require.NoError(t, service.DeleteCollectible(ctx, alice, created.ID))

	_, err = service.GetCollectible(ctx, alice, created.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	events.AssertExpectations(t)
}
