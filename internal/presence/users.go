package presence

import (
	"sort"

	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/validation"
)

// NewLocalUser создает запись локального участника со случайными именем и цветом.
func NewLocalUser() models.UserState {
	return models.UserState{Name: GenerateName(), Color: GenerateColor()}
}

// RemoteUsers собирает записи остальных участников. Записи без поля user
// или не прошедшие проверку схемы отбрасываются.
func RemoteUsers(a *Awareness) []models.RemoteUser {
	users := make([]models.RemoteUser, 0)
	for clientID, state := range a.States() {
		if clientID == a.ClientID() {
			continue
		}
		raw, ok := state[UserField]
		if !ok {
			continue
		}
		user, err := validation.ValidateUserState(raw)
		if err != nil {
			continue
		}
		users = append(users, models.RemoteUser{UserState: user, ClientID: clientID})
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ClientID < users[j].ClientID
	})
	return users
}
