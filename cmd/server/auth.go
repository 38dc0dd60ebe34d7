package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/icco/gobang"
	"github.com/icco/gobang/auth"
	"go.uber.org/zap"
)

type contextKey string

const userContextKey contextKey = "user"

// currentUser verifies the bearer token and loads the user it names.
func (s *server) currentUser(r *http.Request) (*gobang.User, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, errMissingToken
	}

	id, err := auth.Verify(s.secret, raw)
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(r.Context(), id)
}

// authMiddleware protects routes. The verified user is put on the context.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.currentUser(r)
		if err != nil {
			log.Infow("authentication failed", "path", r.URL.Path, zap.Error(err))
			renderJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserFromContext(r *http.Request) *gobang.User {
	if user, ok := r.Context().Value(userContextKey).(*gobang.User); ok && user != nil {
		return user
	}
	return nil
}

// getMustUserFromContext is for handlers behind authMiddleware.
func getMustUserFromContext(r *http.Request) *gobang.User {
	user := getUserFromContext(r)
	if user == nil {
		panic("user is nil in protected route - auth middleware failed")
	}
	return user
}
