// Package app wires the content file, the scene, the engine and the overlay services into the
// running gallery.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gallery/engine/scene"
	"github.com/Carmen-Shannon/oxy-gallery/engine/texture"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
	"github.com/Carmen-Shannon/oxy-gallery/engine/window"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/ambience"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/config"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/content"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/repometa"
	"github.com/Carmen-Shannon/oxy-gallery/gallery/statefeed"
)

// App owns the services that outlive a single scene: the state feed, the repository client and
// the ambience player. Each content reload builds a new scene with the next generation.
type App struct {
	mu  *sync.Mutex
	ctx context.Context
	cfg config.Config

	hub    *statefeed.Hub
	repos  *repometa.Client
	player *ambience.Player

	items      []content.Item
	generation uint64
	detail     *Detail // last published detail, nil in the gallery
	detailSeq  uint64  // bumped on every view change; stale repository lookups compare against it
	unfollow   context.CancelFunc

	engine engine.Engine
	win    window.Window
}

// New creates an App for the given content. No scene is built until BuildScene.
//
// Parameters:
//   - ctx: bounds every background task the App starts
//   - cfg: the validated configuration
//   - items: the initial content
//
// Returns:
//   - *App: the app
func New(ctx context.Context, cfg config.Config, items []content.Item) *App {
	a := &App{
		mu:    &sync.Mutex{},
		ctx:   ctx,
		cfg:   cfg,
		hub:   statefeed.NewHub(),
		repos: repometa.NewClient(cfg.RepoAPI, &http.Client{Timeout: cfg.FetchTimeout}),
		items: items,
	}
	if cfg.AmbienceURL != "" {
		a.player = ambience.NewPlayer(cfg.AmbienceURL)
	}
	return a
}

// Hub returns the state feed.
func (a *App) Hub() *statefeed.Hub {
	return a.hub
}

// Items returns the current content.
func (a *App) Items() []content.Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.items
}

// BuildScene builds a scene over the current content with the next generation number.
//
// Returns:
//   - scene.Scene: the new scene
//   - error: scene.ErrNoContent when the content is empty
func (a *App) BuildScene() (scene.Scene, error) {
	a.mu.Lock()
	a.generation++
	gen := a.generation
	items := a.items
	a.mu.Unlock()

	width, height := a.cfg.Width, a.cfg.Height
	if a.win != nil {
		width, height = a.win.Width(), a.win.Height()
	}

	fetcher := texture.NewHTTPFetcher(
		texture.WithHTTPClient(&http.Client{Timeout: a.cfg.FetchTimeout}),
		texture.WithBaseDir(filepath.Dir(a.cfg.ContentPath)),
	)

	return scene.NewScene(content.SceneItems(items),
		scene.WithName("gallery"),
		scene.WithGeneration(gen),
		scene.WithContext(a.ctx),
		scene.WithRig(camera.NewRig(camera.WithMode(a.cfg.Mode()))),
		scene.WithFetcher(fetcher),
		scene.WithStreamerOptions(
			texture.WithInitialBatch(a.cfg.InitialBatch),
			texture.WithLoadDistance(float32(a.cfg.LoadDistance)),
			texture.WithMaxDimension(a.cfg.MaxTexture),
			texture.WithWorkers(a.cfg.FetchWorkers),
		),
		scene.WithViewport(width, height),
		scene.WithOnReady(func() {
			log.Printf("[App] scene generation %d ready", gen)
		}),
		scene.WithOnViewChange(a.viewChanged),
		scene.WithPointerLockHandler(a.requestLock),
		scene.WithFirstInteraction(a.firstInteraction),
	)
}

// viewChanged publishes the overlay detail for the new view. Called on the engine goroutine.
func (a *App) viewChanged(state view.State, focus int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detailSeq++

	switch state {
	case view.Project:
		d, ok := Describe(a.items, focus)
		if !ok {
			return
		}
		if d.Repo != nil && d.Repo.Status == RepoLoading {
			if m, cached := a.repos.Cached(d.Repo.Ref); cached {
				d.Repo = withMetadata(*d.Repo, m)
			} else {
				go a.resolveRepo(a.detailSeq, *d.Repo)
			}
		}
		a.detail = &d
		a.hub.PublishDetail(d)
	case view.Gallery:
		a.detail = nil
		a.hub.PublishDetail(nil)
	}
}

// resolveRepo fetches repository metadata and republishes the detail unless the view moved on.
func (a *App) resolveRepo(seq uint64, pending RepoDetail) {
	m, err := a.repos.Fetch(a.ctx, pending.Ref)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		log.Printf("[App] repository %s: %v", pending.Ref, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.detailSeq || a.detail == nil {
		return
	}
	d := *a.detail
	if err != nil {
		d.Repo = withError(pending, err)
	} else {
		d.Repo = withMetadata(pending, m)
	}
	a.detail = &d
	a.hub.PublishDetail(d)
}

// RetryRepo refetches the open project's repository after a failed lookup.
func (a *App) RetryRepo() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detail == nil || a.detail.Repo == nil || a.detail.Repo.Status != RepoError || a.detail.Repo.Ref == "" {
		return
	}
	a.repos.Forget(a.detail.Repo.Ref)
	pending := *a.detail.Repo
	pending.Status, pending.Error = RepoLoading, ""
	d := *a.detail
	d.Repo = &pending
	a.detail = &d
	a.hub.PublishDetail(d)
	go a.resolveRepo(a.detailSeq, pending)
}

func (a *App) requestLock(lock bool) {
	if a.win == nil {
		return
	}
	if lock {
		a.win.RequestPointerLock()
	} else {
		a.win.ExitPointerLock()
	}
}

func (a *App) firstInteraction() {
	if a.player == nil {
		return
	}
	go func() {
		if err := a.player.Start(a.ctx); err != nil {
			log.Printf("[App] ambience unavailable: %v", err)
		}
	}()
}

// follow streams s to the state feed, replacing the previously followed scene.
func (a *App) follow(s scene.Scene) {
	ctx, cancel := context.WithCancel(a.ctx)
	a.mu.Lock()
	if a.unfollow != nil {
		a.unfollow()
	}
	a.unfollow = cancel
	a.mu.Unlock()
	go a.hub.Follow(ctx, s)
}

// Reload swaps in new content and rebuilds the scene. Failed builds keep the running scene.
//
// Parameters:
//   - items: the reloaded content
func (a *App) Reload(items []content.Item) {
	a.mu.Lock()
	previous := a.items
	a.items = items
	a.mu.Unlock()

	s, err := a.BuildScene()
	if err != nil {
		log.Printf("[App] rebuild failed, keeping the current scene: %v", err)
		a.mu.Lock()
		a.items = previous
		a.mu.Unlock()
		return
	}
	if a.engine != nil {
		if err := a.engine.SetScene(s); err != nil {
			log.Printf("[App] install scene: %v", err)
			return
		}
	}
	a.mu.Lock()
	a.detailSeq++
	a.detail = nil
	a.mu.Unlock()
	a.hub.PublishDetail(nil)
	a.follow(s)
}

// bindInput forwards window input to the active scene through the engine queue.
func (a *App) bindInput(win window.Window, e engine.Engine) {
	win.SetPointerMoveCallback(func(x, y float64) {
		e.Post(func(s scene.Scene) { s.PointerMove(x, y) })
	})
	win.SetLookCallback(func(dx, dy float64) {
		e.Post(func(s scene.Scene) { s.LookMotion(dx, dy) })
	})
	win.SetPointerDownCallback(func(x, y float64) {
		e.Post(func(s scene.Scene) { s.PointerDown(x, y) })
	})
	win.SetPointerUpCallback(func(x, y float64) {
		e.Post(func(s scene.Scene) { s.PointerUp(x, y) })
	})
	win.SetPointerLeaveCallback(func() {
		e.Post(func(s scene.Scene) { s.PointerLeave() })
	})
	win.SetScrollCallback(func(deltaY float64) {
		e.Post(func(s scene.Scene) { s.Wheel(deltaY) })
	})
	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyF:
			win.ToggleFullscreen()
		case common.KeyR:
			a.RetryRepo()
		default:
			e.Post(func(s scene.Scene) { s.KeyDown(keyCode) })
		}
	})
	win.SetKeyUpCallback(func(keyCode uint32) {
		e.Post(func(s scene.Scene) { s.KeyUp(keyCode) })
	})
	win.SetPointerLockCallback(func(locked bool, err error) {
		e.Post(func(s scene.Scene) {
			if err != nil {
				s.PointerLockError(err)
				return
			}
			s.PointerLockChanged(locked)
		})
	})
}

// Run opens the window and runs the gallery until the window closes or ctx is cancelled.
// Must be called from the main goroutine.
//
// Parameters:
//   - ctx: cancelling it closes the window
//   - cfg: the validated configuration
//
// Returns:
//   - error: error if the content, the window, the renderer or the first scene cannot be created
func Run(ctx context.Context, cfg config.Config) error {
	items, err := content.Load(cfg.ContentPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	win, err := window.Open(window.WithTitle(cfg.Title), window.WithWidth(cfg.Width), window.WithHeight(cfg.Height))
	if err != nil {
		return err
	}

	present := renderer.PresentModeVSync
	if !cfg.VSync {
		present = renderer.PresentModeUncapped
	}
	rend, err := renderer.NewRenderer(win.SurfaceDescriptor(), win.Width(), win.Height(),
		renderer.WithPresentMode(present),
		renderer.WithMSAA(renderer.ParseMSAA(cfg.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.SoftwareRenderer),
	)
	if err != nil {
		_ = win.Close()
		return fmt.Errorf("create renderer: %w", err)
	}
	defer rend.Release()

	a := New(ctx, cfg, items)
	a.win = win
	a.engine = engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(rend),
		engine.WithTickRate(cfg.TickRate),
		engine.WithRenderFrameLimit(cfg.RenderFrameLimit),
		engine.WithProfiling(cfg.Profile),
	)
	a.bindInput(win, a.engine)

	s, err := a.BuildScene()
	if err != nil {
		_ = win.Close()
		return err
	}
	if err := a.engine.SetScene(s); err != nil {
		_ = win.Close()
		return err
	}
	a.follow(s)

	if cfg.FeedAddr != "" {
		go func() {
			if err := a.hub.Serve(ctx, cfg.FeedAddr); err != nil {
				log.Printf("[App] state feed stopped: %v", err)
			}
		}()
	}
	if cfg.WatchContent {
		go func() {
			err := content.Watch(ctx, cfg.ContentPath, content.DefaultDebounce, a.Reload)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[App] content watch stopped: %v", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		win.RequestClose()
	}()

	log.Printf("[App] %d projects from %s", len(items), cfg.ContentPath)
	a.engine.Run()

	cancel()
	if a.player != nil {
		a.player.Stop()
	}
	if cur := a.engine.Scene(); cur != nil {
		cur.Dispose()
	}
	return win.Close()
}
