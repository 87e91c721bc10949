package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Client is a mock for resource.Client.
type Client struct {
	mock.Mock
}

func (m *Client) Get(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)
	if fill, ok := args.Get(0).(func(out any)); ok && fill != nil {
		fill(out)
	}
	return args.Error(1)
}

func (m *Client) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	if fill, ok := args.Get(0).(func(out any)); ok && fill != nil {
		fill(out)
	}
	return args.Error(1)
}

func (m *Client) Put(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	if fill, ok := args.Get(0).(func(out any)); ok && fill != nil {
		fill(out)
	}
	return args.Error(1)
}

func (m *Client) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
