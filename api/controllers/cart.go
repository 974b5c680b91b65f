package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shopeasy-backend/api/responses"
	"github.com/angelmondragon/shopeasy-backend/api/validators"
	"github.com/angelmondragon/shopeasy-backend/internal/cart"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
)

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, userID int64, _ *http.Request) (*cart.View, error) {
		return svc.Get(ctx, userID)
	})
}

// CartCreate appends the submitted items to the caller's cart.
func CartCreate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, userID int64, r *http.Request) (*cart.View, error) {
		var body cart.ItemsInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.CreateCart(ctx, userID, body.Items)
	})
}

// CartReplace overwrites every line of the caller's cart.
func CartReplace(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, userID int64, r *http.Request) (*cart.View, error) {
		var body cart.ItemsInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.ReplaceItems(ctx, userID, body.Items)
	})
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, userID int64, r *http.Request) (*cart.View, error) {
		var body cart.ItemChangeInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.AddItem(ctx, userID, body)
	})
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, userID int64, r *http.Request) (*cart.View, error) {
		var body cart.ItemChangeInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.RemoveItem(ctx, userID, body)
	})
}

func CartRecompute(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(ctx context.Context, userID int64, _ *http.Request) (*cart.View, error) {
		return svc.RecomputeTotal(ctx, userID)
	})
}

func cartHandler(svc cart.Service, logg *logger.Logger, fn func(ctx context.Context, userID int64, r *http.Request) (*cart.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := fn(r.Context(), userID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart.FromView(view))
	}
}
