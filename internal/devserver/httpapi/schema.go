package httpapi

import (
	"time"

	"github.com/vadimbarashkov/url-shortener-client/internal/devserver"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	APIKey  string `json:"api_key"`
}

type apiKeyResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
}

type linkRequest struct {
	LongURL   string `json:"long_url" validate:"required,url"`
	ShortCode string `json:"short_code" validate:"omitempty,max=64,excludesall=/?#"`
}

type createdLinkResponse struct {
	ShortenedURL string `json:"shortened_url"`
	ShortCode    string `json:"short_code"`
	LongURL      string `json:"long_url"`
}

type linkResponse struct {
	APIKey      string     `json:"apiKey"`
	ShortURL    string     `json:"shortURL"`
	LongURL     string     `json:"longURL"`
	ClickCount  int64      `json:"clickCount"`
	LastClicked *time.Time `json:"lastClicked"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toLinkResponse(baseURL string, link devserver.Link) linkResponse {
	return linkResponse{
		APIKey:      link.APIKey,
		ShortURL:    baseURL + "/" + link.ShortCode,
		LongURL:     link.LongURL,
		ClickCount:  link.ClickCount,
		LastClicked: link.LastClicked,
		CreatedAt:   link.CreatedAt,
	}
}
