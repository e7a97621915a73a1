// Package packager turns a pasted batch script into a standalone Windows
// executable by driving an external toolchain.
//
// The backend is fixed per host: PyInstaller on Windows, a MinGW-w64 cross
// compile everywhere else. Every build runs in its own temporary workspace
// that is removed on every exit path; only the finished executable is copied
// out, to a destination that never overwrites an existing file.
package packager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"autousb/internal/build"
	"autousb/internal/config"
	"autousb/internal/logging"
	"autousb/internal/tactile"
	"autousb/internal/types"
)

// Artifact is a finished build.
type Artifact struct {
	// Path is where the executable was written.
	Path string
	// Backend that produced it.
	Backend BackendKind
	// Tool is the toolchain binary that ran.
	Tool string
	// Hash is the SHA-256 of the executable.
	Hash     string
	Duration time.Duration
	// Output is the toolchain's captured text.
	Output string
}

// Attempt is reported to a Recorder after every Package call.
type Attempt struct {
	Backend   BackendKind
	Requested string
	Artifact  *Artifact
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder receives finished attempts, successful or not.
type Recorder interface {
	RecordBuild(Attempt)
}

// Packager runs builds through one backend.
type Packager struct {
	backend  Backend
	tempDir  string
	recorder Recorder

	mu       sync.Mutex
	dirLocks map[string]*sync.Mutex
	flight   singleflight.Group
}

// Option configures a Packager.
type Option func(*packagerOptions)

type packagerOptions struct {
	goos     string
	backend  Backend
	executor tactile.Executor
	path     tactile.PathResolver
	consent  ConsentFunc
	recorder Recorder
	tempDir  string
}

// WithGOOS overrides the host platform used to select the backend.
func WithGOOS(goos string) Option { return func(o *packagerOptions) { o.goos = goos } }

// WithBackend bypasses backend selection.
func WithBackend(b Backend) Option { return func(o *packagerOptions) { o.backend = b } }

// WithExecutor sets the subprocess runner for the selected backend.
func WithExecutor(e tactile.Executor) Option { return func(o *packagerOptions) { o.executor = e } }

// WithPathResolver sets how toolchain binaries are found.
func WithPathResolver(r tactile.PathResolver) Option { return func(o *packagerOptions) { o.path = r } }

// WithConsent sets the install consent capability. Without it installs are declined.
func WithConsent(c ConsentFunc) Option { return func(o *packagerOptions) { o.consent = c } }

// WithRecorder reports every attempt to r.
func WithRecorder(r Recorder) Option { return func(o *packagerOptions) { o.recorder = r } }

// WithTempDir sets where build workspaces are created. Empty means os.TempDir.
func WithTempDir(dir string) Option { return func(o *packagerOptions) { o.tempDir = dir } }

// New creates a Packager for the toolchain configuration.
func New(cfg *config.ToolchainConfig, opts ...Option) *Packager {
	if cfg == nil {
		def := config.DefaultToolchainConfig()
		cfg = &def
	}
	o := packagerOptions{
		goos:     runtime.GOOS,
		executor: tactile.NewDirectExecutor(),
		path:     tactile.SystemPath{},
		consent:  NeverConsent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	backend := o.backend
	if backend == nil {
		backend = newBackend(SelectBackend(o.goos), cfg, o)
	}
	logging.PackagerDebug("Packager using backend %s", backend.Kind())

	return &Packager{
		backend:  backend,
		tempDir:  o.tempDir,
		recorder: o.recorder,
		dirLocks: make(map[string]*sync.Mutex),
	}
}

func newBackend(kind BackendKind, cfg *config.ToolchainConfig, o packagerOptions) Backend {
	timeout := cfg.GetTimeout()
	if kind == BackendBundler {
		return &Bundler{
			Executor: o.executor,
			Path:     o.path,
			Binary:   cfg.Bundler,
			Env:      func(ws string) []string { return build.BundlerEnv(cfg, ws) },
			Timeout:  timeout,
		}
	}

	consent := o.consent
	switch cfg.AutoInstall {
	case config.InstallAlways:
		consent = AlwaysConsent
	case config.InstallNever:
		consent = NeverConsent
	}
	return &CrossCompiler{
		Executor:       o.executor,
		Path:           o.path,
		Compilers:      cfg.CrossCompilers,
		PackageManager: cfg.PackageManager,
		InstallCommand: cfg.InstallCommand,
		Consent:        consent,
		Env:            func(ws string) []string { return build.CompilerEnv(cfg, ws) },
		InstallEnv:     func() []string { return build.InstallerEnv(cfg) },
		Timeout:        timeout,
	}
}

// Backend returns the backend builds run through.
func (p *Packager) Backend() BackendKind { return p.backend.Kind() }

// Package builds script into a standalone executable at destination, or at
// the first free numbered variant of it. An empty destination means
// DefaultFileName in the working directory, and an existing directory means
// DefaultFileName inside it. The descriptor is not touched.
//
// Identical concurrent requests share one build. Builds targeting the same
// directory run one at a time so name selection cannot race.
func (p *Packager) Package(ctx context.Context, script, destination string) (*Artifact, error) {
	script = NormalizeScript(script)
	if destination == "" {
		destination = DefaultFileName
	}
	if abs, err := filepath.Abs(destination); err == nil {
		destination = abs
	}
	if info, err := os.Stat(destination); err == nil && info.IsDir() {
		destination = filepath.Join(destination, DefaultFileName)
	}

	key := flightKey(destination, script)
	v, err, shared := p.flight.Do(key, func() (interface{}, error) {
		return p.packageOnce(ctx, script, destination)
	})
	if shared {
		logging.PackagerDebug("Joined in-flight build for %s", destination)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

func (p *Packager) packageOnce(ctx context.Context, script, destination string) (artifact *Artifact, err error) {
	const op = "package"
	start := time.Now()

	defer func() {
		if artifact != nil {
			artifact.Duration = time.Since(start)
		}
		if p.recorder != nil {
			p.recorder.RecordBuild(Attempt{
				Backend:   p.backend.Kind(),
				Requested: destination,
				Artifact:  artifact,
				Err:       err,
				StartedAt: start,
				Duration:  time.Since(start),
			})
		}
	}()

	if script == "" {
		return nil, types.Errorf(types.KindInvalidInput, op, "add some commands before converting")
	}

	dir := filepath.Dir(destination)
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return nil, types.NewError(types.KindNotFound, op, "destination directory does not exist: "+dir, statErr)
	}

	tool, err := p.prepare(ctx)
	if err != nil {
		return nil, err
	}

	unlock := p.lockDir(dir)
	defer unlock()

	final := NextAvailablePath(destination)
	if final != destination {
		logging.PackagerDebug("%s exists, using %s", destination, final)
	}

	workspace, err := os.MkdirTemp(p.tempDir, "autousb-build-")
	if err != nil {
		return nil, types.NewError(types.KindIOFailure, op, "could not create build workspace", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workspace); rmErr != nil {
			logging.PackagerWarn("Failed to remove workspace %s: %v", workspace, rmErr)
		}
	}()

	timer := logging.StartTimer(logging.CategoryPackager, "build "+string(p.backend.Kind()))
	out, err := p.backend.Build(ctx, BuildRequest{
		Workspace: workspace,
		Script:    script,
		Name:      artifactName(final),
		Tool:      tool,
	})
	timer.StopWithInfo()
	if err != nil {
		logging.PackagerError("Build failed: %v", err)
		return nil, err
	}

	copied, err := tactile.CopyFile(out.Path, final)
	if err != nil {
		return nil, types.NewError(types.KindIOFailure, op, "could not save the executable", err)
	}

	logging.Packager("Executable saved to %s", final)
	return &Artifact{
		Path:    final,
		Backend: p.backend.Kind(),
		Tool:    tool,
		Hash:    copied.Hash,
		Output:  out.Output,
	}, nil
}

// prepare resolves the toolchain once for concurrent callers so a missing
// compiler is never installed twice.
func (p *Packager) prepare(ctx context.Context) (string, error) {
	v, err, _ := p.flight.Do("prepare:"+string(p.backend.Kind()), func() (interface{}, error) {
		return p.backend.Prepare(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// lockDir serializes builds writing into dir.
func (p *Packager) lockDir(dir string) func() {
	key := filepath.Clean(dir)
	p.mu.Lock()
	l, ok := p.dirLocks[key]
	if !ok {
		l = &sync.Mutex{}
		p.dirLocks[key] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func flightKey(destination, script string) string {
	sum := sha256.Sum256([]byte(script))
	return destination + "\x00" + hex.EncodeToString(sum[:])
}
