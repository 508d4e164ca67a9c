package auth

import (
	"github.com/google/uuid"

	"github.com/fossabot/DropOut/internal/model"
)

// OfflineAccount creates an unauthenticated account with a deterministic
// version-3 UUID derived from the username, so the same name always maps to
// the same player identity.
func OfflineAccount(username string) *model.Account {
	return &model.Account{
		Type:     model.AccountOffline,
		Username: username,
		UUID:     uuid.NewMD5(uuid.NameSpaceOID, []byte(username)).String(),
	}
}
