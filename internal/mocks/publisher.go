// Package mocks holds testify mocks shared by service tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fkhayef/studygroup/internal/events"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event events.Event) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
