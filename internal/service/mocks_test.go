package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rehive-autosave/internal/models"
	"rehive-autosave/internal/rehive"
)

type MockRehiveClient struct {
	mock.Mock
}

func (m *MockRehiveClient) ListAccounts(ctx context.Context, name, user string) ([]rehive.Account, error) {
	args := m.Called(ctx, name, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rehive.Account), args.Error(1)
}

func (m *MockRehiveClient) CreateAccount(ctx context.Context, name string, primary bool, user string) (*rehive.Account, error) {
	args := m.Called(ctx, name, primary, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rehive.Account), args.Error(1)
}

func (m *MockRehiveClient) CreateTransfer(ctx context.Context, req rehive.TransferRequest) (*rehive.Transfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rehive.Transfer), args.Error(1)
}

type MockUserLocker struct {
	mock.Mock
}

func (m *MockUserLocker) Acquire(ctx context.Context, user string) (func(), bool) {
	args := m.Called(ctx, user)
	return args.Get(0).(func()), args.Bool(1)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) SendSavingsTransferEvent(ctx context.Context, event models.SavingsTransferEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockKafkaProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}
