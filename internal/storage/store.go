package storage

// Store 持久化接口 / Store is the persistence interface behind the sqlite backend
type Store interface {
	// 追踪器状态 / Tracker state, one document per project
	LoadState(projectDir string) ([]byte, error)
	SaveState(projectDir string, data []byte) error

	// 同步事件 / Reconciliation event log
	RecordSyncEvent(ev SyncEvent) error
	ListSyncEvents(projectDir string, limit int) ([]SyncEvent, error)

	// 生命周期 / Lifecycle
	Close() error
}

// ProjectState binds a Store to one project so it can serve as a tracker
// state store.
type ProjectState struct {
	store      Store
	projectDir string
}

// ForProject returns the state store of projectDir.
func ForProject(store Store, projectDir string) *ProjectState {
	return &ProjectState{store: store, projectDir: projectDir}
}

func (p *ProjectState) Load() ([]byte, error) {
	return p.store.LoadState(p.projectDir)
}

func (p *ProjectState) Save(data []byte) error {
	return p.store.SaveState(p.projectDir, data)
}
