package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrMalformedUpdate возвращается для кадра присутствия, который не удалось разобрать.
var ErrMalformedUpdate = errors.New("malformed awareness update")

// UserField - поле состояния, в котором хранится запись участника.
const UserField = "user"

// State - состояние присутствия одного клиента: произвольные JSON-поля.
type State map[string]json.RawMessage

// Entry - запись одного клиента в кадре присутствия. State == nil означает,
// что клиент ушел.
type Entry struct {
	ClientID string `json:"client_id"`
	State    State  `json:"state"`
	Clock    int64  `json:"clock"`
}

// Update - кадр присутствия.
type Update struct {
	Entries []Entry `json:"entries"`
}

// Change перечисляет клиентов, чьи записи изменились.
type Change struct {
	Origin  string
	Added   []string
	Updated []string
	Removed []string
}

// Empty reports whether the change touched nobody.
func (c Change) Empty() bool {
	return len(c.Added)+len(c.Updated)+len(c.Removed) == 0
}

// Awareness хранит записи присутствия всех известных клиентов.
// Каждый клиент пишет только свою запись; более новая запись (по clock)
// заменяет старую.
type Awareness struct {
	states   map[string]State
	clocks   map[string]int64
	clientID string

	changeSubs []func(Change)
	updateSubs []func(update []byte, origin string)

	mu    sync.Mutex
	subMu sync.Mutex
}

// NewAwareness создает канал присутствия для клиента clientID.
func NewAwareness(clientID string) *Awareness {
	return &Awareness{
		states:   make(map[string]State),
		clocks:   make(map[string]int64),
		clientID: clientID,
	}
}

// ClientID returns the local client id.
func (a *Awareness) ClientID() string {
	return a.clientID
}

// SetLocalStateField записывает одно поле локального состояния и рассылает
// обновленную запись.
func (a *Awareness) SetLocalStateField(field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal awareness field %s: %w", field, err)
	}

	a.mu.Lock()
	state, existed := a.states[a.clientID]
	next := make(State, len(state)+1)
	maps.Copy(next, state)
	next[field] = raw
	a.states[a.clientID] = next
	a.clocks[a.clientID]++
	entry := Entry{ClientID: a.clientID, Clock: a.clocks[a.clientID], State: next}
	a.mu.Unlock()

	change := Change{Origin: "local"}
	if existed {
		change.Updated = []string{a.clientID}
	} else {
		change.Added = []string{a.clientID}
	}
	a.publish(change, []Entry{entry})
	return nil
}

// ClearLocalState удаляет локальную запись (клиент уходит).
func (a *Awareness) ClearLocalState() {
	a.RemoveStates([]string{a.clientID}, "local")
}

// LocalState returns a copy of the local record.
func (a *Awareness) LocalState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.states[a.clientID])
}

// States возвращает копию всех известных записей, включая локальную.
func (a *Awareness) States() map[string]State {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]State, len(a.states))
	for id, state := range a.states {
		out[id] = maps.Clone(state)
	}
	return out
}

// ApplyUpdate вливает кадр присутствия другого клиента или сервера.
// Записи о локальном клиенте игнорируются.
func (a *Awareness) ApplyUpdate(data []byte, origin string) error {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}

	change := Change{Origin: origin}
	var applied []Entry

	a.mu.Lock()
	for _, e := range u.Entries {
		if e.ClientID == "" || e.ClientID == a.clientID {
			continue
		}
		_, existed := a.states[e.ClientID]
		if current, known := a.clocks[e.ClientID]; known && e.Clock <= current {
			// уход с тем же clock снимает запись: так сервер сообщает о разрыве
			if e.Clock < current || e.State != nil || !existed {
				continue
			}
		}

		a.clocks[e.ClientID] = e.Clock
		switch {
		case e.State == nil && existed:
			delete(a.states, e.ClientID)
			change.Removed = append(change.Removed, e.ClientID)
		case e.State == nil:
			// уход неизвестного клиента: запоминаем только clock
		case existed:
			a.states[e.ClientID] = maps.Clone(e.State)
			change.Updated = append(change.Updated, e.ClientID)
		default:
			a.states[e.ClientID] = maps.Clone(e.State)
			change.Added = append(change.Added, e.ClientID)
		}
		applied = append(applied, e)
	}
	a.mu.Unlock()

	a.publish(change, applied)
	return nil
}

// RemoveStates удаляет записи клиентов, например после разрыва их соединения,
// и рассылает записи об уходе. Clock чужой записи не меняется, чтобы клиент
// мог вернуться с RenewLocalState.
func (a *Awareness) RemoveStates(clientIDs []string, origin string) {
	change := Change{Origin: origin}
	var entries []Entry

	a.mu.Lock()
	for _, id := range clientIDs {
		if _, ok := a.states[id]; !ok {
			continue
		}
		delete(a.states, id)
		if id == a.clientID {
			a.clocks[id]++
		}
		change.Removed = append(change.Removed, id)
		entries = append(entries, Entry{ClientID: id, Clock: a.clocks[id]})
	}
	a.mu.Unlock()

	a.publish(change, entries)
}

// RenewLocalState увеличивает clock локальной записи и возвращает ее кадр
// для отправки после переподключения. Подписчики не уведомляются.
func (a *Awareness) RenewLocalState() ([]byte, error) {
	a.mu.Lock()
	state, ok := a.states[a.clientID]
	if !ok {
		a.mu.Unlock()
		return nil, nil
	}
	a.clocks[a.clientID]++
	entry := Entry{ClientID: a.clientID, Clock: a.clocks[a.clientID], State: maps.Clone(state)}
	a.mu.Unlock()

	return encode([]Entry{entry})
}

// EncodeUpdate кодирует текущие записи указанных клиентов (всех, если список пуст).
func (a *Awareness) EncodeUpdate(clientIDs ...string) ([]byte, error) {
	a.mu.Lock()
	if len(clientIDs) == 0 {
		clientIDs = slices.Sorted(maps.Keys(a.states))
	}
	entries := make([]Entry, 0, len(clientIDs))
	for _, id := range clientIDs {
		clock, ok := a.clocks[id]
		if !ok {
			continue
		}
		entries = append(entries, Entry{ClientID: id, Clock: clock, State: maps.Clone(a.states[id])})
	}
	a.mu.Unlock()

	return encode(entries)
}

// OnChange подписывает fn на изменения записей. Возвращает функцию отписки.
func (a *Awareness) OnChange(fn func(Change)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	a.changeSubs = append(a.changeSubs, fn)
	idx := len(a.changeSubs) - 1
	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		a.changeSubs[idx] = nil
	}
}

// OnUpdate подписывает fn на закодированные кадры с изменившимися записями.
func (a *Awareness) OnUpdate(fn func(update []byte, origin string)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	a.updateSubs = append(a.updateSubs, fn)
	idx := len(a.updateSubs) - 1
	return func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		a.updateSubs[idx] = nil
	}
}

func (a *Awareness) publish(change Change, entries []Entry) {
	if change.Empty() && len(entries) == 0 {
		return
	}

	a.subMu.Lock()
	changeSubs := slices.Clone(a.changeSubs)
	updateSubs := slices.Clone(a.updateSubs)
	a.subMu.Unlock()

	if !change.Empty() {
		for _, fn := range changeSubs {
			if fn != nil {
				fn(change)
			}
		}
	}

	if len(entries) == 0 {
		return
	}
	data, err := encode(entries)
	if err != nil {
		return
	}
	for _, fn := range updateSubs {
		if fn != nil {
			fn(data, change.Origin)
		}
	}
}

func encode(entries []Entry) ([]byte, error) {
	data, err := json.Marshal(Update{Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("failed to encode awareness update: %w", err)
	}
	return data, nil
}
