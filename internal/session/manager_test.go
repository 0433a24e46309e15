package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vadimbarashkov/url-shortener-client/internal/credential"
	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
	"github.com/vadimbarashkov/url-shortener-client/internal/logger"
)

type MockGateway struct {
	mock.Mock
}

func (g *MockGateway) Register(ctx context.Context, email, password string) (entity.AuthResult, error) {
	args := g.Called(ctx, email, password)
	return args.Get(0).(entity.AuthResult), args.Error(1)
}

func (g *MockGateway) Login(ctx context.Context, email, password string) (entity.AuthResult, error) {
	args := g.Called(ctx, email, password)
	return args.Get(0).(entity.AuthResult), args.Error(1)
}

func (g *MockGateway) CreateAPIKey(ctx context.Context) (string, error) {
	args := g.Called(ctx)
	return args.String(0), args.Error(1)
}

func (g *MockGateway) ListLinks(ctx context.Context) ([]entity.Link, error) {
	args := g.Called(ctx)
	links, _ := args.Get(0).([]entity.Link)
	return links, args.Error(1)
}

type brokenBackend struct{}

var errBroken = errors.New("storage disabled")

func (brokenBackend) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (brokenBackend) Set(context.Context, string, string) error         { return errBroken }
func (brokenBackend) Delete(context.Context, string) error              { return errBroken }

func signedToken(subject string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return token
}

type ManagerTestSuite struct {
	suite.Suite
	ctx    context.Context
	gw     *MockGateway
	store  *credential.Store
	m      *Manager
	events []Event
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *ManagerTestSuite) SetupSubTest() {
	suite.gw = new(MockGateway)
	suite.store = credential.NewStore(credential.NewMemory(), logger.Discard())
	suite.m = New(suite.gw, suite.store, WithLogger(logger.Discard()))
	suite.events = nil
	suite.m.Subscribe(func(e Event) {
		suite.events = append(suite.events, e)
	})
}

func (suite *ManagerTestSuite) TearDownSubTest() {
	suite.gw.AssertExpectations(suite.T())
}

func (suite *ManagerTestSuite) lastEvent() Event {
	suite.Require().NotEmpty(suite.events)
	return suite.events[len(suite.events)-1]
}

func (suite *ManagerTestSuite) TestInitialState() {
	suite.Run("public before any check", func() {
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.Empty(suite.m.DisplayName())
		suite.Empty(suite.events)
	})
}

func (suite *ManagerTestSuite) TestValidateSession() {
	suite.Run("no credentials", func() {
		v, err := suite.m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Invalid, v)
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.gw.AssertNotCalled(suite.T(), "ListLinks", mock.Anything)
	})

	suite.Run("valid token", func() {
		suite.store.Set(suite.ctx, entity.KindToken, signedToken("a@b.com"))
		suite.gw.On("ListLinks", mock.Anything).Once().Return([]entity.Link{}, nil)

		v, err := suite.m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Valid, v)
		suite.Equal(entity.StateAuthenticated, suite.m.State())
		suite.Equal("a@b.com", suite.m.DisplayName())
		suite.Equal(entity.ViewCreate, suite.lastEvent().View)
	})

	suite.Run("rejected token without api key", func() {
		suite.store.Set(suite.ctx, entity.KindToken, "expired")
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrUnauthorized)

		v, err := suite.m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Invalid, v)
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.True(suite.store.Snapshot(suite.ctx).None())
	})

	suite.Run("rejected token does not fall back to api key", func() {
		suite.store.Set(suite.ctx, entity.KindToken, "expired")
		suite.store.Set(suite.ctx, entity.KindAPIKey, "key")
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrUnauthorized)

		v, err := suite.m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Invalid, v)
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.Equal(entity.Credentials{APIKey: "key"}, suite.store.Snapshot(suite.ctx))
		suite.gw.AssertNumberOfCalls(suite.T(), "ListLinks", 1)
	})

	suite.Run("valid api key without token", func() {
		suite.store.Set(suite.ctx, entity.KindAPIKey, "key")
		suite.gw.On("ListLinks", mock.Anything).Once().Return([]entity.Link{}, nil)

		v, err := suite.m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Valid, v)
		suite.Equal(entity.StateAuthenticated, suite.m.State())
		suite.Empty(suite.m.DisplayName())
	})

	suite.Run("rejected api key", func() {
		suite.store.Set(suite.ctx, entity.KindAPIKey, "revoked")
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrUnauthorized)

		v, err := suite.m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Invalid, v)
		suite.True(suite.store.Snapshot(suite.ctx).None())
	})

	suite.Run("unreachable service keeps credentials", func() {
		suite.store.Set(suite.ctx, entity.KindToken, "tok")
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrServiceUnavailable)

		v, err := suite.m.ValidateSession(suite.ctx)

		suite.ErrorIs(err, entity.ErrServiceUnavailable)
		suite.Equal(entity.Unreachable, v)
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.Equal(entity.Credentials{Token: "tok"}, suite.store.Snapshot(suite.ctx))
	})

	suite.Run("store that remembers nothing", func() {
		m := New(suite.gw, credential.NewStore(brokenBackend{}, logger.Discard()))

		v, err := m.ValidateSession(suite.ctx)

		suite.NoError(err)
		suite.Equal(entity.Invalid, v)
		suite.Equal(entity.StatePublic, m.State())
	})
}

func (suite *ManagerTestSuite) TestLogin() {
	suite.Run("rejected", func() {
		suite.gw.On("Login", mock.Anything, "a@b.com", "wrong").
			Once().
			Return(entity.AuthResult{}, entity.ErrUnauthorized)

		_, err := suite.m.Login(suite.ctx, "a@b.com", "wrong")

		suite.ErrorIs(err, entity.ErrUnauthorized)
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.True(suite.store.Snapshot(suite.ctx).None())
		suite.Empty(suite.events)
	})

	suite.Run("success without api key", func() {
		suite.gw.On("Login", mock.Anything, "a@b.com", "secret1").
			Once().
			Return(entity.AuthResult{Token: "opaque"}, nil)

		res, err := suite.m.Login(suite.ctx, "a@b.com", "secret1")

		suite.NoError(err)
		suite.Equal("opaque", res.Token)
		suite.Equal(entity.StateAuthenticated, suite.m.State())
		suite.Equal(entity.Credentials{Token: "opaque"}, suite.store.Snapshot(suite.ctx))
		suite.Equal("a@b.com", suite.m.DisplayName())

		ev := suite.lastEvent()
		suite.Equal(entity.StateAuthenticated, ev.State)
		suite.Equal(entity.ViewCreate, ev.View)
		suite.Equal("a@b.com", ev.DisplayName)
	})

	suite.Run("login then logout", func() {
		suite.gw.On("Login", mock.Anything, "a@b.com", "secret1").
			Once().
			Return(entity.AuthResult{Token: "tok", APIKey: "key"}, nil)

		_, err := suite.m.Login(suite.ctx, "a@b.com", "secret1")
		suite.NoError(err)

		suite.m.Logout(suite.ctx)

		suite.Equal(entity.StatePublic, suite.m.State())
		suite.Empty(suite.m.DisplayName())
		suite.True(suite.store.Snapshot(suite.ctx).None())

		ev := suite.lastEvent()
		suite.Equal(entity.StatePublic, ev.State)
		suite.Equal(entity.ViewCreate, ev.View)
	})
}

func (suite *ManagerTestSuite) TestRegister() {
	suite.Run("success with api key", func() {
		token := signedToken("a@b.com")
		suite.gw.On("Register", mock.Anything, "a@b.com", "secret1").
			Once().
			Return(entity.AuthResult{Message: "User registered successfully", Token: token, APIKey: "key"}, nil)

		res, err := suite.m.Register(suite.ctx, "a@b.com", "secret1")

		suite.NoError(err)
		suite.Equal("key", res.APIKey)
		suite.Equal(entity.StateAuthenticated, suite.m.State())
		suite.Equal(entity.Credentials{Token: token, APIKey: "key"}, suite.store.Snapshot(suite.ctx))
	})

	suite.Run("validation failure", func() {
		suite.gw.On("Register", mock.Anything, "a@b.com", "x").
			Once().
			Return(entity.AuthResult{}, entity.ErrValidation)

		_, err := suite.m.Register(suite.ctx, "a@b.com", "x")

		suite.ErrorIs(err, entity.ErrValidation)
		suite.Equal(entity.StatePublic, suite.m.State())
	})
}

func (suite *ManagerTestSuite) TestUseAPIKey() {
	suite.Run("empty key", func() {
		err := suite.m.UseAPIKey(suite.ctx, "  ")

		suite.ErrorIs(err, entity.ErrValidation)
		suite.gw.AssertNotCalled(suite.T(), "ListLinks", mock.Anything)
	})

	suite.Run("accepted", func() {
		suite.gw.On("ListLinks", mock.Anything).Once().Return([]entity.Link{}, nil)

		err := suite.m.UseAPIKey(suite.ctx, " key ")

		suite.NoError(err)
		suite.Equal(entity.StateAuthenticated, suite.m.State())
		suite.Equal(entity.Credentials{APIKey: "key"}, suite.store.Snapshot(suite.ctx))
	})

	suite.Run("rejected restores previous key", func() {
		suite.store.Set(suite.ctx, entity.KindAPIKey, "old")
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrUnauthorized)

		err := suite.m.UseAPIKey(suite.ctx, "bad")

		suite.ErrorIs(err, entity.ErrUnauthorized)
		suite.Equal(entity.StatePublic, suite.m.State())
		suite.Equal(entity.Credentials{APIKey: "old"}, suite.store.Snapshot(suite.ctx))
		suite.Empty(suite.events)
	})

	suite.Run("rejected without previous key", func() {
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrUnauthorized)

		err := suite.m.UseAPIKey(suite.ctx, "bad")

		suite.ErrorIs(err, entity.ErrUnauthorized)
		suite.True(suite.store.Snapshot(suite.ctx).None())
	})

	suite.Run("unreachable keeps key", func() {
		suite.gw.On("ListLinks", mock.Anything).Once().Return(nil, entity.ErrServiceUnavailable)

		err := suite.m.UseAPIKey(suite.ctx, "key")

		suite.ErrorIs(err, entity.ErrServiceUnavailable)
		suite.Equal(entity.Credentials{APIKey: "key"}, suite.store.Snapshot(suite.ctx))
		suite.Equal(entity.StatePublic, suite.m.State())
	})
}

func (suite *ManagerTestSuite) TestCreateAPIKey() {
	suite.Run("unauthorized evicts nothing", func() {
		suite.store.Set(suite.ctx, entity.KindToken, "tok")
		suite.gw.On("CreateAPIKey", mock.Anything).Once().Return("", entity.ErrUnauthorized)

		_, err := suite.m.CreateAPIKey(suite.ctx)

		suite.ErrorIs(err, entity.ErrUnauthorized)
		suite.Equal(entity.Credentials{Token: "tok"}, suite.store.Snapshot(suite.ctx))
	})

	suite.Run("success is not stored", func() {
		suite.gw.On("CreateAPIKey", mock.Anything).Once().Return("fresh", nil)

		key, err := suite.m.CreateAPIKey(suite.ctx)

		suite.NoError(err)
		suite.Equal("fresh", key)
		suite.True(suite.store.Snapshot(suite.ctx).None())
	})
}

func (suite *ManagerTestSuite) TestLogout() {
	suite.Run("storage failure does not block transition", func() {
		suite.gw.On("Login", mock.Anything, "a@b.com", "secret1").
			Once().
			Return(entity.AuthResult{Token: "tok"}, nil)

		m := New(suite.gw, credential.NewStore(brokenBackend{}, logger.Discard()))

		_, err := m.Login(suite.ctx, "a@b.com", "secret1")
		suite.NoError(err)
		suite.Equal(entity.StateAuthenticated, m.State())

		m.Logout(suite.ctx)

		suite.Equal(entity.StatePublic, m.State())
	})
}

func (suite *ManagerTestSuite) TestSubscribe() {
	suite.Run("unsubscribe stops delivery", func() {
		now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		m := New(suite.gw, suite.store, WithClock(func() time.Time { return now }))

		var got []Event
		unsubscribe := m.Subscribe(func(e Event) { got = append(got, e) })

		m.Logout(suite.ctx)
		unsubscribe()
		m.Logout(suite.ctx)

		suite.Require().Len(got, 1)
		suite.Equal("logged out", got[0].Reason)
		suite.Equal(now, got[0].At)
	})
}
