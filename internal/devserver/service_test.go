package devserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type MockRepository struct {
	mock.Mock
}

func (r *MockRepository) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	args := r.Called(ctx, email, passwordHash)
	user, _ := args.Get(0).(*User)
	return user, args.Error(1)
}

func (r *MockRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := r.Called(ctx, email)
	user, _ := args.Get(0).(*User)
	return user, args.Error(1)
}

func (r *MockRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	args := r.Called(ctx, id)
	user, _ := args.Get(0).(*User)
	return user, args.Error(1)
}

func (r *MockRepository) CreateAPIKey(ctx context.Context, userID int64, key string) (*APIKey, error) {
	args := r.Called(ctx, userID, key)
	k, _ := args.Get(0).(*APIKey)
	return k, args.Error(1)
}

func (r *MockRepository) GetFirstAPIKey(ctx context.Context, userID int64) (*APIKey, error) {
	args := r.Called(ctx, userID)
	k, _ := args.Get(0).(*APIKey)
	return k, args.Error(1)
}

func (r *MockRepository) GetAPIKey(ctx context.Context, key string) (*APIKey, error) {
	args := r.Called(ctx, key)
	k, _ := args.Get(0).(*APIKey)
	return k, args.Error(1)
}

func (r *MockRepository) CreateLink(ctx context.Context, apiKeyID *int64, shortCode, longURL string) (*Link, error) {
	args := r.Called(ctx, apiKeyID, shortCode, longURL)
	link, _ := args.Get(0).(*Link)
	return link, args.Error(1)
}

func (r *MockRepository) ResolveLink(ctx context.Context, shortCode string) (*Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*Link)
	return link, args.Error(1)
}

func (r *MockRepository) ListLinksByUser(ctx context.Context, userID int64) ([]Link, error) {
	args := r.Called(ctx, userID)
	links, _ := args.Get(0).([]Link)
	return links, args.Error(1)
}

func (r *MockRepository) DeleteLink(ctx context.Context, userID int64, shortCode string) error {
	args := r.Called(ctx, userID, shortCode)
	return args.Error(0)
}

type ServiceTestSuite struct {
	suite.Suite
	errUnknown error
	now        time.Time
	hash       string
	repo       *MockRepository
	svc        *Service
}

func (suite *ServiceTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	suite.Require().NoError(err)
	suite.hash = string(hash)
}

func (suite *ServiceTestSuite) SetupSubTest() {
	suite.repo = new(MockRepository)
	suite.svc = suite.newService(func() time.Time { return suite.now })
}

func (suite *ServiceTestSuite) TearDownSubTest() {
	suite.repo.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) newService(now func() time.Time) *Service {
	return NewService(suite.repo, "test-secret", time.Hour, 6,
		WithClock(now),
		WithHashCost(bcrypt.MinCost),
	)
}

func (suite *ServiceTestSuite) user() *User {
	return &User{ID: 1, Email: "user@example.com", PasswordHash: suite.hash}
}

func (suite *ServiceTestSuite) TestRegister() {
	ctx := context.Background()

	suite.Run("user exists", func() {
		suite.repo.
			On("CreateUser", ctx, "user@example.com", mock.AnythingOfType("string")).
			Once().
			Return(nil, ErrUserExists)

		res, err := suite.svc.Register(ctx, " user@example.com ", "secret")

		suite.ErrorIs(err, ErrUserExists)
		suite.Nil(res)
	})

	suite.Run("api key collision is retried", func() {
		suite.repo.
			On("CreateUser", ctx, "user@example.com", mock.AnythingOfType("string")).
			Once().
			Return(suite.user(), nil)
		suite.repo.
			On("CreateAPIKey", ctx, int64(1), mock.AnythingOfType("string")).
			Once().
			Return(nil, ErrAPIKeyExists)
		suite.repo.
			On("CreateAPIKey", ctx, int64(1), mock.AnythingOfType("string")).
			Once().
			Return(&APIKey{ID: 7, UserID: 1, Key: "0123456789abcdef0123456789abcdef"}, nil)

		res, err := suite.svc.Register(ctx, "user@example.com", "secret")

		suite.Require().NoError(err)
		suite.Equal("0123456789abcdef0123456789abcdef", res.APIKey)
		suite.NotEmpty(res.Token)
	})

	suite.Run("password is hashed", func() {
		suite.repo.
			On("CreateUser", ctx, "user@example.com", mock.MatchedBy(func(hash string) bool {
				return bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")) == nil
			})).
			Once().
			Return(suite.user(), nil)
		suite.repo.
			On("CreateAPIKey", ctx, int64(1), mock.MatchedBy(func(key string) bool {
				return len(key) == 32
			})).
			Once().
			Return(&APIKey{ID: 7, UserID: 1, Key: "k"}, nil)

		_, err := suite.svc.Register(ctx, "user@example.com", "secret")

		suite.NoError(err)
	})
}

func (suite *ServiceTestSuite) TestLogin() {
	ctx := context.Background()

	suite.Run("unknown user", func() {
		suite.repo.On("GetUserByEmail", ctx, "nobody@example.com").Once().Return(nil, ErrUserNotFound)

		res, err := suite.svc.Login(ctx, "nobody@example.com", "secret")

		suite.ErrorIs(err, ErrInvalidCredentials)
		suite.Nil(res)
	})

	suite.Run("wrong password", func() {
		suite.repo.On("GetUserByEmail", ctx, "user@example.com").Once().Return(suite.user(), nil)

		res, err := suite.svc.Login(ctx, "user@example.com", "wrong")

		suite.ErrorIs(err, ErrInvalidCredentials)
		suite.Nil(res)
	})

	suite.Run("user without api key", func() {
		suite.repo.On("GetUserByEmail", ctx, "user@example.com").Once().Return(suite.user(), nil)
		suite.repo.On("GetFirstAPIKey", ctx, int64(1)).Once().Return(nil, ErrAPIKeyNotFound)

		res, err := suite.svc.Login(ctx, "user@example.com", "secret")

		suite.Require().NoError(err)
		suite.NotEmpty(res.Token)
		suite.Empty(res.APIKey)
	})

	suite.Run("success", func() {
		suite.repo.On("GetUserByEmail", ctx, "user@example.com").Once().Return(suite.user(), nil)
		suite.repo.On("GetFirstAPIKey", ctx, int64(1)).Once().Return(&APIKey{ID: 7, Key: "key"}, nil)

		res, err := suite.svc.Login(ctx, "user@example.com", "secret")

		suite.Require().NoError(err)
		suite.Equal("key", res.APIKey)

		claims := jwt.MapClaims{}
		_, _, err = jwt.NewParser().ParseUnverified(res.Token, claims)
		suite.Require().NoError(err)
		suite.Equal("user@example.com", claims["sub"])
		suite.Equal("user@example.com", claims["email"])
		suite.Equal("url-shortener", claims["iss"])
	})

	suite.Run("unknown error", func() {
		suite.repo.On("GetUserByEmail", ctx, "user@example.com").Once().Return(nil, suite.errUnknown)

		_, err := suite.svc.Login(ctx, "user@example.com", "secret")

		suite.ErrorIs(err, suite.errUnknown)
		suite.NotErrorIs(err, ErrInvalidCredentials)
	})
}

func (suite *ServiceTestSuite) TestAuthenticateToken() {
	ctx := context.Background()

	suite.Run("valid token", func() {
		suite.repo.On("GetUserByEmail", ctx, "user@example.com").Once().Return(suite.user(), nil)
		suite.repo.On("GetFirstAPIKey", ctx, int64(1)).Once().Return(&APIKey{ID: 7}, nil)

		token, err := suite.svc.issueToken("user@example.com")
		suite.Require().NoError(err)

		p, err := suite.svc.AuthenticateToken(ctx, token)

		suite.Require().NoError(err)
		suite.Equal(int64(1), p.UserID)
		suite.Require().NotNil(p.APIKeyID)
		suite.Equal(int64(7), *p.APIKeyID)
	})

	suite.Run("expired token", func() {
		token, err := suite.svc.issueToken("user@example.com")
		suite.Require().NoError(err)

		later := suite.newService(func() time.Time { return suite.now.Add(2 * time.Hour) })

		_, err = later.AuthenticateToken(ctx, token)

		suite.ErrorIs(err, ErrInvalidToken)
	})

	suite.Run("foreign signature", func() {
		other := NewService(suite.repo, "other-secret", time.Hour, 6, WithClock(func() time.Time { return suite.now }))

		token, err := other.issueToken("user@example.com")
		suite.Require().NoError(err)

		_, err = suite.svc.AuthenticateToken(ctx, token)

		suite.ErrorIs(err, ErrInvalidToken)
	})

	suite.Run("garbage", func() {
		_, err := suite.svc.AuthenticateToken(ctx, "not-a-token")

		suite.ErrorIs(err, ErrInvalidToken)
	})

	suite.Run("deleted user", func() {
		suite.repo.On("GetUserByEmail", ctx, "user@example.com").Once().Return(nil, ErrUserNotFound)

		token, err := suite.svc.issueToken("user@example.com")
		suite.Require().NoError(err)

		_, err = suite.svc.AuthenticateToken(ctx, token)

		suite.ErrorIs(err, ErrInvalidToken)
	})
}

func (suite *ServiceTestSuite) TestAuthenticateAPIKey() {
	ctx := context.Background()

	suite.Run("unknown key", func() {
		suite.repo.On("GetAPIKey", ctx, "nope").Once().Return(nil, ErrAPIKeyNotFound)

		p, err := suite.svc.AuthenticateAPIKey(ctx, "nope")

		suite.ErrorIs(err, ErrAPIKeyNotFound)
		suite.Nil(p)
	})

	suite.Run("success", func() {
		suite.repo.On("GetAPIKey", ctx, "key").Once().Return(&APIKey{ID: 7, UserID: 1, Key: "key"}, nil)
		suite.repo.On("GetUserByID", ctx, int64(1)).Once().Return(suite.user(), nil)

		p, err := suite.svc.AuthenticateAPIKey(ctx, "key")

		suite.Require().NoError(err)
		suite.Equal("user@example.com", p.Email)
		suite.Equal(int64(7), *p.APIKeyID)
	})
}

func (suite *ServiceTestSuite) TestShortenURL() {
	ctx := context.Background()
	keyID := int64(7)

	suite.Run("custom code taken", func() {
		suite.repo.
			On("CreateLink", ctx, &keyID, "mine", "https://example.com").
			Once().
			Return(nil, ErrShortCodeExists)

		link, err := suite.svc.ShortenURL(ctx, &keyID, "https://example.com", "mine")

		suite.ErrorIs(err, ErrShortCodeExists)
		suite.Nil(link)
	})

	suite.Run("short code generation error", func() {
		suite.svc.shortCodeLength = -1

		link, err := suite.svc.ShortenURL(ctx, nil, "https://example.com", "")

		suite.Error(err)
		suite.Nil(link)
	})

	suite.Run("maximum retries error", func() {
		suite.repo.
			On("CreateLink", ctx, (*int64)(nil), mock.Anything, "https://example.com").
			Times(5).
			Return(nil, ErrShortCodeExists)

		link, err := suite.svc.ShortenURL(ctx, nil, "https://example.com", "")

		suite.ErrorIs(err, ErrMaxRetriesExceeded)
		suite.Nil(link)
	})

	suite.Run("collision grows the code", func() {
		suite.repo.
			On("CreateLink", ctx, (*int64)(nil), mock.MatchedBy(func(code string) bool { return len(code) == 6 }), "https://example.com").
			Once().
			Return(nil, ErrShortCodeExists)
		suite.repo.
			On("CreateLink", ctx, (*int64)(nil), mock.MatchedBy(func(code string) bool { return len(code) == 7 }), "https://example.com").
			Once().
			Return(&Link{ShortCode: "abcdefg", LongURL: "https://example.com"}, nil)

		link, err := suite.svc.ShortenURL(ctx, nil, "https://example.com", "")

		suite.Require().NoError(err)
		suite.Equal("abcdefg", link.ShortCode)
		suite.Equal(6, suite.svc.shortCodeLength)
	})

	suite.Run("unknown error", func() {
		suite.repo.
			On("CreateLink", ctx, (*int64)(nil), mock.Anything, "https://example.com").
			Once().
			Return(nil, suite.errUnknown)

		_, err := suite.svc.ShortenURL(ctx, nil, "https://example.com", "")

		suite.ErrorIs(err, suite.errUnknown)
	})
}

func (suite *ServiceTestSuite) TestLinks() {
	ctx := context.Background()

	suite.Run("resolve", func() {
		suite.repo.On("ResolveLink", ctx, "abc123").Once().Return(&Link{ShortCode: "abc123", ClickCount: 1}, nil)

		link, err := suite.svc.ResolveShortCode(ctx, "abc123")

		suite.Require().NoError(err)
		suite.Equal(int64(1), link.ClickCount)
	})

	suite.Run("resolve missing", func() {
		suite.repo.On("ResolveLink", ctx, "nope").Once().Return(nil, ErrLinkNotFound)

		_, err := suite.svc.ResolveShortCode(ctx, "nope")

		suite.ErrorIs(err, ErrLinkNotFound)
	})

	suite.Run("list", func() {
		suite.repo.On("ListLinksByUser", ctx, int64(1)).Once().Return([]Link{{ShortCode: "a"}, {ShortCode: "b"}}, nil)

		links, err := suite.svc.ListLinks(ctx, 1)

		suite.NoError(err)
		suite.Len(links, 2)
	})

	suite.Run("delete missing", func() {
		suite.repo.On("DeleteLink", ctx, int64(1), "nope").Once().Return(ErrLinkNotFound)

		err := suite.svc.DeleteLink(ctx, 1, "nope")

		suite.ErrorIs(err, ErrLinkNotFound)
	})

	suite.Run("create api key", func() {
		suite.repo.On("CreateAPIKey", ctx, int64(1), mock.AnythingOfType("string")).Once().Return(&APIKey{Key: "fresh"}, nil)

		key, err := suite.svc.CreateAPIKey(ctx, 1)

		suite.NoError(err)
		suite.Equal("fresh", key)
	})
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
