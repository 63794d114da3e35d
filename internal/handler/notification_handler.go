/*
Package handler provides HTTP handler functions for the notification pull
interface.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/auth/jwt"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/resp"
)

const listNotificationsLimit = 100

// HandleListNotifications returns the caller's notifications, newest first.
func HandleListNotifications(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := jwt.PrincipalFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrAuthMissing))
			return
		}

		notifications, err := deps.Relay.ListForUser(r.Context(), principal.UserID, listNotificationsLimit)
		if err != nil {
			logx.Error(err, "Notification listing failed", "user_id", principal.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if notifications == nil {
			notifications = []notify.Notification{}
		}

		resp.RespondSuccess(w, r, map[string]any{"notifications": notifications})
	}
}

// HandleMarkNotificationRead marks one of the caller's notifications read.
func HandleMarkNotificationRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := jwt.PrincipalFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrAuthMissing))
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Relay.MarkRead(r.Context(), principal.UserID, id); err != nil {
			if errors.Is(err, notify.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotificationNotFound))
				return
			}
			logx.Error(err, "Notification mark read failed", "notification_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
