package launcher

import (
	"context"

	"github.com/fossabot/DropOut/internal/model"
)

// AccountStore persists signed-in accounts. Save upserts by account UUID and
// marks the account active; Remove promotes the first remaining account when
// the active one is deleted.
type AccountStore interface {
	Save(a *model.Account) error
	Active() (*model.Account, error) // (nil, nil) when no account is signed in
	SetActive(id string) error
	Remove(id string) error
	List() ([]*model.Account, error)
	Close() error
}

// Authenticator re-runs the downstream half of the credential chain from a
// stored refresh token, producing a fresh account record (including a rotated
// refresh token).
type Authenticator interface {
	Refresh(ctx context.Context, refreshToken string) (*model.Account, error)
}

// VersionResolver loads a version descriptor and resolves its inheritance
// chain into a self-contained descriptor.
type VersionResolver interface {
	Resolve(ctx context.Context, id string) (*model.VersionDescriptor, error)
}

// AssetResolver fetches (and locally caches) the asset index named by ref and
// expands it into one download task per unique object.
type AssetResolver interface {
	Tasks(ctx context.Context, ref *model.AssetIndexRef) ([]Task, error)
}

// NativesExtractor unpacks native-library jars into the per-launch natives
// directory, replacing whatever a previous launch left there.
type NativesExtractor interface {
	Extract(jars []string, dest string) error
}

// ProcessSpec describes the process to launch.
type ProcessSpec struct {
	Executable string
	Args       []string
	Dir        string
}

// Handle identifies a launched process. Done receives the exit code exactly
// once (-1 when the code is unavailable).
type Handle struct {
	PID  int
	Done <-chan int
}

// Runner spawns the game process with piped output, streams each line through
// the sink as it arrives, and reports the exit code. Spawn failure is
// returned synchronously.
type Runner interface {
	Start(ctx context.Context, spec ProcessSpec, sink EventSink) (*Handle, error)
}
