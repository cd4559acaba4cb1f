package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/payauth-go/internal/core/domain"
)

const (
	pathUsers       = "/users"
	pathUsersSearch = "/users/search"
)

// Default paging.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// UsersService reads the user directory.
type UsersService struct {
	client Requester
}

// NewUsersService creates a new UsersService.
func NewUsersService(client Requester) *UsersService {
	return &UsersService{client: client}
}

// List returns one page of users. Non-positive page or limit fall back
// to the defaults.
func (s *UsersService) List(ctx context.Context, page, limit int) (*domain.UserPage, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	path := fmt.Sprintf("%s?page=%d&limit=%d", pathUsers, page, limit)
	return s.fetch(ctx, path)
}

// Search runs a server-side search.
func (s *UsersService) Search(ctx context.Context, query string) (*domain.UserPage, error) {
	return s.fetch(ctx, pathUsersSearch+"?q="+url.QueryEscape(query))
}

func (s *UsersService) fetch(ctx context.Context, path string) (*domain.UserPage, error) {
	var page domain.UserPage
	if err := s.client.Get(ctx, path, &page); err != nil {
		return nil, translate(err, domain.ErrUsersRejected, domain.ErrUsersUnreachable)
	}
	if page.Users == nil {
		page.Users = []domain.UserProfile{}
	}
	return &page, nil
}

// Filter keeps the users whose full name or email contains query,
// ignoring case. An empty query keeps everyone.
func Filter(users []domain.UserProfile, query string) []domain.UserProfile {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users
	}

	out := make([]domain.UserProfile, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.FullName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
