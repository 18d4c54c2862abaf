package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCreateDerivesSlots(t *testing.T) {
	f := newFixture(t)
	post := f.newPost(t, uuid.New(), 60)

	slots, err := f.posts.Slots(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Slot{{Start: 540, End: 660}, {Start: 570, End: 690}}, slots)
	assert.Equal(t, f.clock.Now(), post.CreatedAt)
}

func TestPostCreateValidation(t *testing.T) {
	f := newFixture(t)
	window := domain.AvailabilityWindow{Days: []time.Weekday{time.Friday}, StartTime: "18:00", EndTime: "20:00"}

	_, err := f.posts.CreatePost(context.Background(), uuid.New(), "  ", 10, window)
	assert.ErrorIs(t, err, domain.ErrInvalidPost)
	_, err = f.posts.CreatePost(context.Background(), uuid.Nil, "yoga", 10, window)
	assert.ErrorIs(t, err, domain.ErrInvalidPost)
	_, err = f.posts.CreatePost(context.Background(), uuid.New(), "yoga", -1, window)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	bad := window
	bad.EndTime = "25:00"
	_, err = f.posts.CreatePost(context.Background(), uuid.New(), "yoga", 10, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestPostShortWindowHasNoSlots(t *testing.T) {
	f := newFixture(t)
	post, err := f.posts.CreatePost(context.Background(), uuid.New(), "chess", 30, domain.AvailabilityWindow{
		Days:      []time.Weekday{time.Tuesday},
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)

	slots, err := f.posts.Slots(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestPostUpdateAvailability(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	post := f.newPost(t, owner, 60)
	window := domain.AvailabilityWindow{Days: []time.Weekday{time.Saturday}, StartTime: "20:00", EndTime: "24:00"}

	_, err := f.posts.UpdateAvailability(context.Background(), post.ID, uuid.New(), window)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.clock.Advance(time.Hour)
	updated, err := f.posts.UpdateAvailability(context.Background(), post.ID, owner, window)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), updated.UpdatedAt)
	assert.Len(t, updated.Slots(), 5)

	stored, err := f.posts.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, window, stored.Availability)

	_, err = f.posts.Slots(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
}
