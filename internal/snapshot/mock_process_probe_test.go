package snapshot

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProcessProbe is a testify mock for ProcessProbe.
type MockProcessProbe struct {
	mock.Mock
}

type MockProcessProbe_Expecter struct {
	mock *mock.Mock
}

func (_m *MockProcessProbe) EXPECT() *MockProcessProbe_Expecter {
	return &MockProcessProbe_Expecter{mock: &_m.Mock}
}

// Running provides a mock function with given fields: ctx, name
func (_m *MockProcessProbe) Running(ctx context.Context, name string) (bool, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for Running")
	}

	var r0 bool
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (bool, error)); ok {
		return rf(ctx, name)
	}
	r0 = ret.Get(0).(bool)
	r1 = ret.Error(1)
	return r0, r1
}

type MockProcessProbe_Running_Call struct {
	*mock.Call
}

func (_e *MockProcessProbe_Expecter) Running(ctx any, name any) *MockProcessProbe_Running_Call {
	return &MockProcessProbe_Running_Call{Call: _e.mock.On("Running", ctx, name)}
}

func (_c *MockProcessProbe_Running_Call) Return(running bool, err error) *MockProcessProbe_Running_Call {
	_c.Call.Return(running, err)
	return _c
}

func (_c *MockProcessProbe_Running_Call) Once() *MockProcessProbe_Running_Call {
	_c.Call.Once()
	return _c
}

func (_c *MockProcessProbe_Running_Call) Maybe() *MockProcessProbe_Running_Call {
	_c.Call.Maybe()
	return _c
}

// Stop provides a mock function with given fields: ctx, name
func (_m *MockProcessProbe) Stop(ctx context.Context, name string) error {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for Stop")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		return rf(ctx, name)
	}
	return ret.Error(0)
}

type MockProcessProbe_Stop_Call struct {
	*mock.Call
}

func (_e *MockProcessProbe_Expecter) Stop(ctx any, name any) *MockProcessProbe_Stop_Call {
	return &MockProcessProbe_Stop_Call{Call: _e.mock.On("Stop", ctx, name)}
}

func (_c *MockProcessProbe_Stop_Call) Return(err error) *MockProcessProbe_Stop_Call {
	_c.Call.Return(err)
	return _c
}

// NewMockProcessProbe creates a mock and asserts its expectations on cleanup.
func NewMockProcessProbe(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProcessProbe {
	m := &MockProcessProbe{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
