// Package mocks provides hand-written testify mocks for the persistence
// contracts, used by the service-level tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
)

type RoomStoreMock struct {
	mock.Mock
}

func (m *RoomStoreMock) ActiveProductRoom(ctx context.Context, productID, customerID int64) (*room.Room, error) {
	args := m.Called(ctx, productID, customerID)
	var r *room.Room
	if val := args.Get(0); val != nil {
		r = val.(*room.Room)
	}
	return r, args.Error(1)
}

func (m *RoomStoreMock) Create(ctx context.Context, r *room.Room) (*room.Room, error) {
	args := m.Called(ctx, r)
	var created *room.Room
	if val := args.Get(0); val != nil {
		created = val.(*room.Room)
	}
	return created, args.Error(1)
}

func (m *RoomStoreMock) Get(ctx context.Context, id int64) (*room.Room, error) {
	args := m.Called(ctx, id)
	var r *room.Room
	if val := args.Get(0); val != nil {
		r = val.(*room.Room)
	}
	return r, args.Error(1)
}

func (m *RoomStoreMock) ListActiveSummaries(ctx context.Context, limit int) ([]room.Summary, error) {
	args := m.Called(ctx, limit)
	var list []room.Summary
	if val := args.Get(0); val != nil {
		list = val.([]room.Summary)
	}
	return list, args.Error(1)
}

func (m *RoomStoreMock) ListForUser(ctx context.Context, userID int64, limit int) ([]room.Room, error) {
	args := m.Called(ctx, userID, limit)
	var list []room.Room
	if val := args.Get(0); val != nil {
		list = val.([]room.Room)
	}
	return list, args.Error(1)
}

func (m *RoomStoreMock) TouchActivity(ctx context.Context, roomID int64, at time.Time) error {
	args := m.Called(ctx, roomID, at)
	return args.Error(0)
}

type StaffFinderMock struct {
	mock.Mock
}

func (m *StaffFinderMock) FirstAvailableStaff(ctx context.Context, excludeID int64) (int64, error) {
	args := m.Called(ctx, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

type ProductCheckerMock struct {
	mock.Mock
}

func (m *ProductCheckerMock) ProductExists(ctx context.Context, productID int64) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

type MessageStoreMock struct {
	mock.Mock
}

func (m *MessageStoreMock) Insert(ctx context.Context, msg *message.Message) (*message.Message, error) {
	args := m.Called(ctx, msg)
	var saved *message.Message
	if val := args.Get(0); val != nil {
		saved = val.(*message.Message)
	}
	return saved, args.Error(1)
}

func (m *MessageStoreMock) ListRecent(ctx context.Context, roomID int64, limit int) ([]message.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var list []message.Message
	if val := args.Get(0); val != nil {
		list = val.([]message.Message)
	}
	return list, args.Error(1)
}

func (m *MessageStoreMock) MarkRead(ctx context.Context, roomID int64, ids []int64, excludeSenderID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, roomID, ids, excludeSenderID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageStoreMock) MarkAllFromSender(ctx context.Context, roomID, senderID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, roomID, senderID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageStoreMock) CountUnreadFromSender(ctx context.Context, roomID, senderID int64) (int, error) {
	args := m.Called(ctx, roomID, senderID)
	return args.Int(0), args.Error(1)
}

type NotificationStoreMock struct {
	mock.Mock
}

func (m *NotificationStoreMock) Insert(ctx context.Context, n *notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationStoreMock) ListForUser(ctx context.Context, userID int64, limit int) ([]notify.Notification, error) {
	args := m.Called(ctx, userID, limit)
	var list []notify.Notification
	if val := args.Get(0); val != nil {
		list = val.([]notify.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationStoreMock) MarkRead(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

type StaffListerMock struct {
	mock.Mock
}

func (m *StaffListerMock) ActiveAdmins(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) Validate(token string) (*identity.Claims, error) {
	args := m.Called(token)
	var claims *identity.Claims
	if val := args.Get(0); val != nil {
		claims = val.(*identity.Claims)
	}
	return claims, args.Error(1)
}
