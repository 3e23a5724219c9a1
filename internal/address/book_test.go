package address

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
)

type mockService struct {
	m         sync.Mutex
	addresses []domain.Address
	err       error
	gate      chan struct{}
	listCalls int
	// promoteLast makes the service pick the last row as primary when the
	// primary is deleted.
	promoteLast bool
	nextID    int
}

func (s *mockService) ListAddresses(_ context.Context, _ string) ([]domain.Address, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.addresses), nil
}

func (s *mockService) CreateAddress(_ context.Context, form domain.AddressForm) (*domain.Address, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.nextID++
	a := domain.Address{
		ID: fmt.Sprintf("new-%d", s.nextID), OwnerID: form.OwnerID, Line1: form.Line1, City: form.City,
		Province: form.Province, PostalCode: form.PostalCode, Country: form.Country, IsPrimary: form.IsPrimary,
	}
	s.addresses = append(s.addresses, a)
	return &a, nil
}

func (s *mockService) UpdateAddress(_ context.Context, id string, patch domain.AddressPatch) (*domain.Address, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for i, a := range s.addresses {
		if a.ID == id {
			s.addresses[i] = patch.Apply(a)
			updated := s.addresses[i]
			return &updated, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *mockService) DeleteAddress(_ context.Context, id string) error {
	if s.gate != nil {
		<-s.gate
	}
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	wasPrimary := slices.ContainsFunc(s.addresses, func(a domain.Address) bool { return a.ID == id && a.IsPrimary })
	s.addresses = slices.DeleteFunc(s.addresses, func(a domain.Address) bool { return a.ID == id })
	if wasPrimary && s.promoteLast && len(s.addresses) > 0 {
		s.addresses[len(s.addresses)-1].IsPrimary = true
	}
	return nil
}

func (s *mockService) SetPrimary(_ context.Context, id string) (*domain.Address, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out *domain.Address
	for i := range s.addresses {
		s.addresses[i].IsPrimary = s.addresses[i].ID == id
		if s.addresses[i].ID == id {
			a := s.addresses[i]
			out = &a
		}
	}
	return out, nil
}

func (s *mockService) setErr(err error) {
	s.m.Lock()
	s.err = err
	s.m.Unlock()
}

func seededBook(t *testing.T) (*Book, *mockService) {
	t.Helper()
	svc := &mockService{addresses: []domain.Address{
		{ID: "a1", Line1: "Av. Arequipa 100", City: "Lima", IsPrimary: true},
		{ID: "a2", Line1: "Jr. Cusco 20", City: "Lima"},
		{ID: "a3", Line1: "Calle 5", City: "Arequipa"},
	}}
	b := NewBook(svc, nil)
	_, err := b.List(context.Background(), "owner-1")
	require.NoError(t, err)
	return b, svc
}

func primaries(addresses []domain.Address) []string {
	var ids []string
	for _, a := range addresses {
		if a.IsPrimary {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestList_GuestIsEmptyWithoutNetwork(t *testing.T) {
	svc := &mockService{}
	b := NewBook(svc, nil)

	got, err := b.List(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, svc.listCalls)
}

func TestList_FailureKeepsPreviousList(t *testing.T) {
	b, svc := seededBook(t)
	svc.setErr(errors.New("shipping service down"))

	got, err := b.List(context.Background(), "owner-1")

	require.Error(t, err)
	assert.Len(t, got, 3)
	assert.Error(t, b.Err())
}

func TestSetPrimary_FlipsBothFlags(t *testing.T) {
	b, _ := seededBook(t)

	require.NoError(t, b.SetPrimary(context.Background(), "a2"))

	assert.Equal(t, []string{"a2"}, primaries(b.Addresses()))
	p, ok := b.Primary()
	require.True(t, ok)
	assert.Equal(t, "a2", p.ID)
}

func TestSetPrimary_OptimisticThenRevert(t *testing.T) {
	b, svc := seededBook(t)
	svc.gate = make(chan struct{})
	svc.setErr(errors.New("boom"))

	done := make(chan error, 1)
	go func() { done <- b.SetPrimary(context.Background(), "a3") }()

	require.Eventually(t, func() bool {
		return slices.Equal(primaries(b.Addresses()), []string{"a3"})
	}, time.Second, 5*time.Millisecond)

	svc.gate <- struct{}{}
	require.Error(t, <-done)
	assert.Equal(t, []string{"a1"}, primaries(b.Addresses()))
	assert.Error(t, b.Err())
}

func TestSetPrimary_Unknown(t *testing.T) {
	b, _ := seededBook(t)
	assert.ErrorIs(t, b.SetPrimary(context.Background(), "nope"), ErrAddressNotFound)
}

func TestRemove_RestoresOriginalPositionOnFailure(t *testing.T) {
	b, svc := seededBook(t)
	svc.setErr(errors.New("boom"))

	err := b.Remove(context.Background(), "a2")

	require.Error(t, err)
	ids := []string{}
	for _, a := range b.Addresses() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)
}

func TestRemove_Success(t *testing.T) {
	b, _ := seededBook(t)

	require.NoError(t, b.Remove(context.Background(), "a3"))

	assert.Len(t, b.Addresses(), 2)
	assert.Equal(t, []string{"a1"}, primaries(b.Addresses()))
}

func TestRemove_PrimaryPromotesFirstRemaining(t *testing.T) {
	b, _ := seededBook(t)
	ctx := context.Background()
	require.NoError(t, b.SetPrimary(ctx, "a2"))

	require.NoError(t, b.Remove(ctx, "a2"))

	assert.Len(t, b.Addresses(), 2)
	assert.Equal(t, []string{"a1"}, primaries(b.Addresses()))
}

func TestRemove_PrimaryFollowsServiceChoice(t *testing.T) {
	b, svc := seededBook(t)
	svc.promoteLast = true
	listed := svc.listCalls

	require.NoError(t, b.Remove(context.Background(), "a1"))

	assert.Equal(t, listed+1, svc.listCalls)
	assert.Equal(t, []string{"a3"}, primaries(b.Addresses()))
}

func TestRemove_LastAddressLeavesNoPrimary(t *testing.T) {
	svc := &mockService{addresses: []domain.Address{{ID: "a1", Line1: "Av. Arequipa 100", City: "Lima", IsPrimary: true}}}
	b := NewBook(svc, nil)
	_, err := b.List(context.Background(), "owner-1")
	require.NoError(t, err)

	require.NoError(t, b.Remove(context.Background(), "a1"))

	assert.Empty(t, b.Addresses())
	_, ok := b.Primary()
	assert.False(t, ok)
}

func TestMutations_AreSerialized(t *testing.T) {
	b, svc := seededBook(t)
	svc.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- b.Remove(context.Background(), "a3") }()
	require.Eventually(t, func() bool { return len(b.Addresses()) == 2 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, b.SetPrimary(context.Background(), "a2"), ErrMutationInFlight)

	svc.gate <- struct{}{}
	require.NoError(t, <-done)
	assert.Equal(t, []string{"a1"}, primaries(b.Addresses()))
}

func TestCreate_ValidatesBeforeNetwork(t *testing.T) {
	b, svc := seededBook(t)

	_, err := b.Create(context.Background(), domain.AddressForm{Line1: "x"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, svc.addresses, 3)
}

func TestCreate_PrimaryClearsOthers(t *testing.T) {
	b, _ := seededBook(t)

	created, err := b.Create(context.Background(), domain.AddressForm{
		Line1: "Av. Brasil 1", City: "Lima", Province: "Lima", PostalCode: "15001", Country: "PE", IsPrimary: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "owner-1", created.OwnerID)
	assert.Equal(t, []string{created.ID}, primaries(b.Addresses()))
}

func TestUpdate_ReplacesRow(t *testing.T) {
	b, _ := seededBook(t)
	city := "Cusco"

	_, err := b.Update(context.Background(), "a3", domain.AddressPatch{City: &city})

	require.NoError(t, err)
	a, ok := b.Find("a3")
	require.True(t, ok)
	assert.Equal(t, "Cusco", a.City)
}

func TestBook_SinglePrimaryAfterMixedSequence(t *testing.T) {
	b, svc := seededBook(t)
	ctx := context.Background()

	_, err := b.Create(ctx, domain.AddressForm{Line1: "L", City: "C", Province: "P", PostalCode: "1", Country: "PE", IsPrimary: true})
	require.NoError(t, err)
	require.NoError(t, b.SetPrimary(ctx, "a3"))

	svc.setErr(errors.New("flaky"))
	require.Error(t, b.SetPrimary(ctx, "a2"))
	require.Error(t, b.Remove(ctx, "a3"))
	svc.setErr(nil)

	require.NoError(t, b.Remove(ctx, "a1"))
	city := "Tacna"
	_, err = b.Update(ctx, "a2", domain.AddressPatch{City: &city})
	require.NoError(t, err)

	assert.Equal(t, []string{"a3"}, primaries(b.Addresses()))
}
