package handler

import (
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/chat"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/identity"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/message"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/notify"
	"github.com/NahidNoorshat/ecommerce-backend/internal/app/room"
	"github.com/NahidNoorshat/ecommerce-backend/internal/configs"
)

// AppDeps bundles the collaborators every handler needs.
type AppDeps struct {
	Config    *configs.AppConfig
	Gate      *identity.Gate
	Hub       *chat.Hub
	Directory *room.Directory
	Ledger    *message.Ledger
	Relay     *notify.Relay
}
