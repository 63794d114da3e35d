package room_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/mocks"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
)

func customer(id int64) identity.Principal {
	return identity.NewPrincipal(&identity.Claims{
		UserID: id, Username: "customer", Role: identity.RoleCustomer, IsActive: true,
	})
}

func staff(id int64) identity.Principal {
	return identity.NewPrincipal(&identity.Claims{
		UserID: id, Username: "staff", Role: identity.RoleStaff, IsStaff: true, IsActive: true,
	})
}

func newDirectory(t *testing.T) (*room.Directory, *mocks.RoomStoreMock, *mocks.StaffFinderMock, *mocks.ProductCheckerMock) {
	t.Helper()
	store := new(mocks.RoomStoreMock)
	finder := new(mocks.StaffFinderMock)
	products := new(mocks.ProductCheckerMock)
	return room.NewDirectory(store, finder, products), store, finder, products
}

func TestResolveReturnsExistingRoom(t *testing.T) {
	directory, store, _, products := newDirectory(t)

	existing := &room.Room{ID: 10, ChatType: room.TypeProduct, CustomerID: 2}
	products.On("ProductExists", mock.Anything, int64(1)).Return(true, nil).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(existing, nil).Once()

	got, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 2)
	require.Nil(t, customErr)
	assert.Equal(t, existing, got)

	store.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestResolveCreatesRoomWithAssignedStaff(t *testing.T) {
	directory, store, finder, products := newDirectory(t)

	products.On("ProductExists", mock.Anything, int64(1)).Return(true, nil).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(nil, room.ErrNotFound).Once()
	finder.On("FirstAvailableStaff", mock.Anything, int64(2)).Return(int64(5), nil).Once()
	store.On("Create", mock.Anything, mock.MatchedBy(func(r *room.Room) bool {
		return r.ChatType == room.TypeProduct &&
			r.CustomerID == 2 &&
			r.ProductID != nil && *r.ProductID == 1 &&
			r.AssignedStaffID != nil && *r.AssignedStaffID == 5
	})).Return(&room.Room{ID: 11, CustomerID: 2, AssignedStaffID: int64Ptr(5)}, nil).Once()

	got, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 2)
	require.Nil(t, customErr)
	assert.Equal(t, int64(11), got.ID)

	store.AssertExpectations(t)
	finder.AssertExpectations(t)
}

func TestResolvePrivilegedRequesterBecomesAssignee(t *testing.T) {
	directory, store, finder, products := newDirectory(t)

	products.On("ProductExists", mock.Anything, int64(1)).Return(true, nil).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(nil, room.ErrNotFound).Once()
	store.On("Create", mock.Anything, mock.MatchedBy(func(r *room.Room) bool {
		return r.AssignedStaffID != nil && *r.AssignedStaffID == 5
	})).Return(&room.Room{ID: 12}, nil).Once()

	_, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, staff(5), 2)
	require.Nil(t, customErr)

	// The staff finder is never consulted for a privileged requester.
	finder.AssertNotCalled(t, "FirstAvailableStaff", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestResolveForbidsForeignRoom(t *testing.T) {
	directory, store, _, _ := newDirectory(t)

	_, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 3)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrForbidden, customErr.Code)

	store.AssertNotCalled(t, "ActiveProductRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveUnknownProduct(t *testing.T) {
	directory, _, _, products := newDirectory(t)

	products.On("ProductExists", mock.Anything, int64(99)).Return(false, nil).Once()

	_, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 99, customer(2), 2)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrProductNotFound, customErr.Code)
}

func TestResolveNoStaffAvailable(t *testing.T) {
	directory, store, finder, products := newDirectory(t)

	products.On("ProductExists", mock.Anything, int64(1)).Return(true, nil).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(nil, room.ErrNotFound).Once()
	finder.On("FirstAvailableStaff", mock.Anything, int64(2)).Return(int64(0), room.ErrNotFound).Once()

	_, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 2)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrNoStaffAvailable, customErr.Code)
}

func TestResolveRejectsCustomerAsAssignee(t *testing.T) {
	directory, store, finder, products := newDirectory(t)

	products.On("ProductExists", mock.Anything, int64(1)).Return(true, nil).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(nil, room.ErrNotFound).Once()
	finder.On("FirstAvailableStaff", mock.Anything, int64(2)).Return(int64(2), nil).Once()

	_, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 2)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrRoomSetupFailed, customErr.Code)

	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveDuplicateInsertRereadsWinner(t *testing.T) {
	directory, store, finder, products := newDirectory(t)

	winner := &room.Room{ID: 20, CustomerID: 2}
	products.On("ProductExists", mock.Anything, int64(1)).Return(true, nil).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(nil, room.ErrNotFound).Once()
	finder.On("FirstAvailableStaff", mock.Anything, int64(2)).Return(int64(5), nil).Once()
	store.On("Create", mock.Anything, mock.Anything).Return(nil, room.ErrDuplicate).Once()
	store.On("ActiveProductRoom", mock.Anything, int64(1), int64(2)).Return(winner, nil).Once()

	got, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 2)
	require.Nil(t, customErr)
	assert.Equal(t, winner, got)
}

// fakeRoomStore is an in-memory store with a real uniqueness constraint, used
// to exercise concurrent resolve-or-create.
type fakeRoomStore struct {
	mu     sync.Mutex
	nextID int64
	rooms  map[string]*room.Room
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{nextID: 1, rooms: make(map[string]*room.Room)}
}

func pairKey(productID, customerID int64) string {
	return (room.Key{ProductID: productID, CustomerID: customerID}).String()
}

func (f *fakeRoomStore) ActiveProductRoom(_ context.Context, productID, customerID int64) (*room.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[pairKey(productID, customerID)]; ok {
		return r, nil
	}
	return nil, room.ErrNotFound
}

func (f *fakeRoomStore) Create(_ context.Context, r *room.Room) (*room.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := pairKey(*r.ProductID, r.CustomerID)
	if _, ok := f.rooms[key]; ok {
		return nil, room.ErrDuplicate
	}

	created := *r
	created.ID = f.nextID
	created.CreatedAt = time.Now()
	created.LastActivityAt = created.CreatedAt
	f.nextID++
	f.rooms[key] = &created
	return &created, nil
}

func (f *fakeRoomStore) Get(_ context.Context, id int64) (*room.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, room.ErrNotFound
}

func (f *fakeRoomStore) ListActiveSummaries(context.Context, int) ([]room.Summary, error) {
	return nil, nil
}

func (f *fakeRoomStore) ListForUser(context.Context, int64, int) ([]room.Room, error) {
	return nil, nil
}

type staticStaff struct{ id int64 }

func (s staticStaff) FirstAvailableStaff(context.Context, int64) (int64, error) {
	return s.id, nil
}

type allProducts struct{}

func (allProducts) ProductExists(context.Context, int64) (bool, error) { return true, nil }

func TestConcurrentResolveYieldsSingleRoom(t *testing.T) {
	directory := room.NewDirectory(newFakeRoomStore(), staticStaff{id: 5}, allProducts{})

	const goroutines = 20
	results := make([]*room.Room, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, customErr := directory.ResolveOrCreateProductRoom(context.Background(), 1, customer(2), 2)
			assert.Nil(t, customErr)
			results[i] = r
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0].ID, r.ID)
	}
}
