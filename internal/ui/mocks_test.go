package ui

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/session"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (entity.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(entity.AuthResult), args.Error(1)
}

func (m *MockAuthenticator) Register(ctx context.Context, email, password string) (entity.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(entity.AuthResult), args.Error(1)
}

type MockLinkCreator struct {
	mock.Mock
}

func (m *MockLinkCreator) CreateLink(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.CreatedLink), args.Error(1)
}

func (m *MockLinkCreator) CreateLinkPublic(ctx context.Context, req entity.CreateLinkRequest) (entity.CreatedLink, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(entity.CreatedLink), args.Error(1)
}

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) ListLinks(ctx context.Context) ([]entity.Link, error) {
	args := m.Called(ctx)
	links, _ := args.Get(0).([]entity.Link)
	return links, args.Error(1)
}

func (m *MockLinkService) DeleteLink(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type MockKeyManager struct {
	mock.Mock
}

func (m *MockKeyManager) CreateAPIKey(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockKeyManager) UseAPIKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fakeSession struct {
	state entity.SessionState
	name  string
	creds entity.Credentials
}

func (s *fakeSession) State() entity.SessionState { return s.state }
func (s *fakeSession) DisplayName() string        { return s.name }

func (s *fakeSession) Credentials(context.Context) entity.Credentials {
	return s.creds
}

type fakePublisher struct {
	subs []func(session.Event)
}

func (p *fakePublisher) Subscribe(fn func(session.Event)) func() {
	p.subs = append(p.subs, fn)
	idx := len(p.subs) - 1

	return func() { p.subs[idx] = nil }
}

func (p *fakePublisher) publish(e session.Event) {
	for _, fn := range p.subs {
		if fn != nil {
			fn(e)
		}
	}
}

func confirmWith(answer bool) ConfirmFunc {
	return func(context.Context, string) (bool, error) {
		return answer, nil
	}
}
