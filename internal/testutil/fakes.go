package testutil

import (
	"context"

	"github.com/fossabot/DropOut/internal/launcher"
	"github.com/fossabot/DropOut/internal/model"
)

// FakeAccountStore is an in-memory launcher.AccountStore.
type FakeAccountStore struct {
	accounts map[string]*model.Account
	active   string
	Saved    []*model.Account // every Save call, in order
}

func NewFakeAccountStore() *FakeAccountStore {
	return &FakeAccountStore{accounts: map[string]*model.Account{}}
}

func (s *FakeAccountStore) Save(a *model.Account) error {
	cp := *a
	s.accounts[a.UUID] = &cp
	s.active = a.UUID
	s.Saved = append(s.Saved, &cp)
	return nil
}

func (s *FakeAccountStore) Active() (*model.Account, error) {
	if s.active == "" {
		return nil, nil
	}
	a := *s.accounts[s.active]
	return &a, nil
}

func (s *FakeAccountStore) SetActive(id string) error {
	if _, ok := s.accounts[id]; !ok {
		return &launcher.NotFoundError{Kind: "account", ID: id}
	}
	s.active = id
	return nil
}

func (s *FakeAccountStore) Remove(id string) error {
	delete(s.accounts, id)
	if s.active == id {
		s.active = ""
		for uuid := range s.accounts {
			s.active = uuid
			break
		}
	}
	return nil
}

func (s *FakeAccountStore) List() ([]*model.Account, error) {
	var out []*model.Account
	for _, a := range s.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *FakeAccountStore) Close() error { return nil }

// FakeAuthenticator returns a canned refresh result.
type FakeAuthenticator struct {
	Refreshed *model.Account
	Err       error
	Calls     int
}

func (a *FakeAuthenticator) Refresh(_ context.Context, _ string) (*model.Account, error) {
	a.Calls++
	if a.Err != nil {
		return nil, a.Err
	}
	cp := *a.Refreshed
	return &cp, nil
}

// FakeVersionResolver serves descriptors from a map.
type FakeVersionResolver struct {
	Versions map[string]*model.VersionDescriptor
}

func (r *FakeVersionResolver) Resolve(_ context.Context, id string) (*model.VersionDescriptor, error) {
	v, ok := r.Versions[id]
	if !ok {
		return nil, &launcher.NotFoundError{Kind: "version", ID: id}
	}
	return v, nil
}

// FakeAssetResolver returns a fixed task list.
type FakeAssetResolver struct {
	TaskList []launcher.Task
	Err      error
}

func (r *FakeAssetResolver) Tasks(_ context.Context, _ *model.AssetIndexRef) ([]launcher.Task, error) {
	return r.TaskList, r.Err
}

// FakeDownloader records what it was asked to fetch.
type FakeDownloader struct {
	Tasks       []launcher.Task
	Concurrency int
	Err         error
}

func (d *FakeDownloader) Run(_ context.Context, tasks []launcher.Task, maxConcurrent int, onEvent func(launcher.DownloadEvent)) error {
	d.Tasks = tasks
	d.Concurrency = maxConcurrent
	if onEvent != nil {
		for i, task := range tasks {
			onEvent(launcher.DownloadEvent{
				File:   task.Path,
				Status: launcher.StatusFinished,
				Progress: launcher.Progress{
					CompletedFiles: i + 1,
					TotalFiles:     len(tasks),
				},
			})
		}
	}
	return d.Err
}

// FakeExtractor records extraction requests.
type FakeExtractor struct {
	Jars []string
	Dest string
	Err  error
}

func (e *FakeExtractor) Extract(jars []string, dest string) error {
	e.Jars = jars
	e.Dest = dest
	return e.Err
}

// FakeRunner captures the spec it was started with.
type FakeRunner struct {
	Spec     launcher.ProcessSpec
	Err      error
	ExitCode int
}

func (r *FakeRunner) Start(_ context.Context, spec launcher.ProcessSpec, sink launcher.EventSink) (*launcher.Handle, error) {
	r.Spec = spec
	if r.Err != nil {
		return nil, r.Err
	}
	done := make(chan int, 1)
	done <- r.ExitCode
	sink.GameExited(r.ExitCode)
	return &launcher.Handle{PID: 4242, Done: done}, nil
}
