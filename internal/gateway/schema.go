package gateway

import (
	"time"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

const apiKeyPrefixLen = 8

// authRequest is the payload of the register and login endpoints.
type authRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authResponse is returned by the register and login endpoints.
type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	APIKey  string `json:"api_key,omitempty"`
}

func (r authResponse) toEntity() entity.AuthResult {
	return entity.AuthResult{
		Message: r.Message,
		Token:   r.Token,
		APIKey:  r.APIKey,
	}
}

// apiKeyResponse is returned by the create-api-key endpoint.
type apiKeyResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
}

// linkRequest is the payload of both link creation endpoints.
type linkRequest struct {
	LongURL   string `json:"long_url" validate:"required"`
	ShortCode string `json:"short_code,omitempty" validate:"omitempty,max=64,excludesall=/?#"`
}

// createdLinkResponse is returned by both link creation endpoints.
type createdLinkResponse struct {
	ShortenedURL string `json:"shortened_url"`
	ShortCode    string `json:"short_code"`
	LongURL      string `json:"long_url"`
}

func (r createdLinkResponse) toEntity() entity.CreatedLink {
	return entity.CreatedLink{
		ShortenedURL: r.ShortenedURL,
		ShortCode:    r.ShortCode,
		LongURL:      r.LongURL,
	}
}

// linkResponse is one element of the list-links response.
type linkResponse struct {
	APIKey      string     `json:"apiKey"`
	ShortURL    string     `json:"shortURL"`
	LongURL     string     `json:"longURL"`
	ClickCount  int64      `json:"clickCount"`
	LastClicked *time.Time `json:"lastClicked"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (r linkResponse) toEntity() entity.Link {
	link := entity.Link{
		ShortURL:    r.ShortURL,
		LongURL:     r.LongURL,
		CreatedAt:   r.CreatedAt,
		LastClicked: r.LastClicked,
	}

	if r.ClickCount > 0 {
		link.ClickCount = uint64(r.ClickCount)
	}

	link.OwnerAPIKeyPrefix = r.APIKey
	if len(link.OwnerAPIKeyPrefix) > apiKeyPrefixLen {
		link.OwnerAPIKeyPrefix = link.OwnerAPIKeyPrefix[:apiKeyPrefixLen]
	}

	return link
}
