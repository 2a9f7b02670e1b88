package state

// Modal is a tagged union: one variant per modal kind, each carrying its own
// typed payload. A nil Modal means nothing is open.
type Modal interface {
	modal()
}

type CreateServerModal struct{}

type CreateCategoryModal struct{}

type CreateChannelModal struct {
	CategoryID string
}

type EditChannelModal struct {
	ChannelID string
}

type EditCategoryModal struct {
	CategoryID string
}

type InviteModal struct {
	ServerID string
}

type SettingsModal struct{}

type ServerSettingsModal struct {
	ServerID string
}

type DeviceSettingsModal struct{}

type AddFriendModal struct{}

func (CreateServerModal) modal()   {}
func (CreateCategoryModal) modal() {}
func (CreateChannelModal) modal()  {}
func (EditChannelModal) modal()    {}
func (EditCategoryModal) modal()   {}
func (InviteModal) modal()         {}
func (SettingsModal) modal()       {}
func (ServerSettingsModal) modal() {}
func (DeviceSettingsModal) modal() {}
func (AddFriendModal) modal()      {}

func (s *Store) OpenModal(modal Modal) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.modal = modal
}

func (s *Store) CloseModal() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.modal = nil
}

func (s *Store) Modal() Modal {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.modal
}
