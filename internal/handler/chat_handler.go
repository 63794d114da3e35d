/*
Package handler provides HTTP handler functions for the REST chat surface.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NahidNoorshat/ecommerce-backend/internal/app/chat"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/auth/jwt"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/req"
	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/resp"
)

const listRoomsLimit = 100

// HandleListChats returns the caller's chat rooms with per-viewer unread
// counts. Staff and admin callers see every active room.
func HandleListChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := jwt.PrincipalFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrAuthMissing))
			return
		}

		if principal.Privileged() {
			summaries, customErr := deps.Directory.ActiveSummaries(r.Context(), listRoomsLimit)
			if customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			resp.RespondSuccess(w, r, map[string]any{"chats": summaries})
			return
		}

		rooms, customErr := deps.Directory.RoomsForUser(r.Context(), principal.UserID, listRoomsLimit)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		summaries := make([]room.Summary, 0, len(rooms))
		for i := range rooms {
			sm := room.Summary{Room: rooms[i]}
			// Customer-sent messages are the only ones that count as unread,
			// so a customer's own badge is always zero.
			if principal.UserID != rooms[i].CustomerID {
				unread, customErr := deps.Ledger.UnreadFromCustomer(r.Context(), &rooms[i])
				if customErr != nil {
					resp.RespondError(w, r, customErr)
					return
				}
				sm.UnreadCount = unread
			}
			summaries = append(summaries, sm)
		}

		resp.RespondSuccess(w, r, map[string]any{"chats": summaries})
	}
}

// roomFromRequest resolves the {id} path segment into a room the caller may
// access.
func roomFromRequest(r *http.Request, deps *AppDeps) (*room.Room, *errs.CustomError) {
	principal, ok := jwt.PrincipalFromContext(r)
	if !ok {
		return nil, errs.NewError(errs.ErrAuthMissing)
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	rm, customErr := deps.Directory.Get(r.Context(), id)
	if customErr != nil {
		return nil, customErr
	}

	if !rm.IsParticipant(principal.UserID) && !principal.Privileged() {
		return nil, errs.NewError(errs.ErrNotParticipant)
	}

	return rm, nil
}

// HandleListMessages returns a room's recent messages in timestamp order.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, customErr := roomFromRequest(r, deps)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		limit := chat.RoomHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > chat.AdminHistoryLimit {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = parsed
		}

		messages, customErr := deps.Ledger.History(r.Context(), rm, limit)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

type markReadInput struct {
	// MessageIDs limits the read marking to specific messages. When omitted,
	// a staff or admin caller marks the room's whole customer backlog read.
	MessageIDs []int64 `json:"message_ids"`
}

// HandleMarkChatRead marks a room's messages read for the calling viewer.
func HandleMarkChatRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := jwt.PrincipalFromContext(r)

		rm, customErr := roomFromRequest(r, deps)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input markReadInput
		if r.ContentLength > 0 {
			if customErr := req.BindJSON(r, &input); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
		}

		var count int64
		if len(input.MessageIDs) > 0 {
			count, customErr = deps.Ledger.MarkRead(r.Context(), rm, input.MessageIDs, principal)
		} else if principal.Privileged() {
			count, customErr = deps.Ledger.MarkCustomerMessagesRead(r.Context(), rm)
		}
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"marked_read": count})
	}
}
