package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCheckDebounce = 40 * time.Millisecond

func TestAvailabilityChecker_DebouncesEdits(t *testing.T) {
	dir := &fakeDirectory{}
	a := NewAvailabilityChecker(dir, nil, WithCheckDebounce(testCheckDebounce))
	defer a.Close()

	a.Edit("Dra")
	a.Edit("Dra. Ma")
	slug := a.Edit("Dra. María")
	assert.Equal(t, "dra-maria", slug)
	assert.Equal(t, StatusChecking, a.Status().Status)

	require.Eventually(t, func() bool { return a.Confirmed("dra-maria") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"dra-maria"}, dir.Checks())
}

func TestAvailabilityChecker_ShortInputNeverChecks(t *testing.T) {
	dir := &fakeDirectory{}
	var seen []Availability
	a := NewAvailabilityChecker(dir, nil, WithCheckDebounce(testCheckDebounce), WithOnChange(func(v Availability) {
		seen = append(seen, v)
	}))
	defer a.Close()

	a.Edit("ab")
	time.Sleep(3 * testCheckDebounce)

	assert.Empty(t, dir.Checks())
	assert.Equal(t, Availability{Slug: "ab", Status: StatusInvalid}, a.Status())
	require.Len(t, seen, 1)
}

func TestAvailabilityChecker_StaleResultIgnored(t *testing.T) {
	release := make(chan struct{})
	dir := &fakeDirectory{IsSlugAvailableFn: func(ctx context.Context, slug string) (bool, error) {
		if slug == "first" {
			<-release
			return true, nil
		}
		return false, nil
	}}
	a := NewAvailabilityChecker(dir, nil, WithCheckDebounce(testCheckDebounce))
	defer a.Close()

	a.Edit("first")
	require.Eventually(t, func() bool { return len(dir.Checks()) == 1 }, time.Second, 5*time.Millisecond)

	a.Edit("second")
	require.Eventually(t, func() bool { return a.Status().Status == StatusTaken }, time.Second, 5*time.Millisecond)

	close(release)
	time.Sleep(2 * testCheckDebounce)
	assert.Equal(t, Availability{Slug: "second", Status: StatusTaken}, a.Status())
	assert.False(t, a.Confirmed("first"))
}

func TestAvailabilityChecker_CheckNow(t *testing.T) {
	ctx := context.Background()
	dir := &fakeDirectory{IsSlugAvailableFn: func(_ context.Context, slug string) (bool, error) {
		if slug == "broken" {
			return false, errors.New("rpc down")
		}
		return slug != "taken", nil
	}}
	a := NewAvailabilityChecker(dir, nil)

	got, err := a.CheckNow(ctx, "Mi Empresa")
	require.NoError(t, err)
	assert.Equal(t, Availability{Slug: "mi-empresa", Status: StatusAvailable}, got)
	assert.True(t, a.Confirmed("mi-empresa"))

	got, err = a.CheckNow(ctx, "taken")
	require.NoError(t, err)
	assert.Equal(t, StatusTaken, got.Status)

	got, err = a.CheckNow(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	got, err = a.CheckNow(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidSlug)
	assert.Equal(t, StatusInvalid, got.Status)
}
