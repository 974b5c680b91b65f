package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopeasy-backend/api/middleware"
	"github.com/angelmondragon/shopeasy-backend/api/validators"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
)

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func requireUser(r *http.Request) (int64, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<31-1)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Offset: offset}, nil
}

// requestBaseURL is scheme://host of the inbound request, honoring a proxy's
// X-Forwarded-Proto. Media references are made absolute against it.
func requestBaseURL(r *http.Request) string {
	if r == nil || r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); proto != "" {
		scheme = strings.ToLower(proto)
	}
	return scheme + "://" + r.Host
}
