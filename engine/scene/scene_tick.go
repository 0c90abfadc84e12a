package scene

import (
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/labels"
	"github.com/Carmen-Shannon/oxy-gallery/engine/picking"
	"github.com/Carmen-Shannon/oxy-gallery/engine/texture"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
)

func (s *scene) Tick(now time.Duration) {
	if s.disposed.Load() {
		return
	}
	s.mu.Lock()
	s.tick(now)
	s.mu.Unlock()
	s.flush()
}

// tick runs one frame of the simulation. Caller must hold the mutex.
//
// Order matters: completed textures are applied first so this frame draws them, the rig runs
// before picking so the ray uses this frame's camera, and the transition runs after the orbit
// update so a frozen focus object is already in place.
func (s *scene) tick(now time.Duration) {
	var delta time.Duration
	if s.ticked {
		delta = min(max(now-s.clock, 0), maxFrameDelta)
	}
	s.ticked = true
	s.clock = now
	s.ticks++
	dt := float32(delta.Seconds())
	t := float32(now.Seconds())

	if s.streamer.Drain(s.applyTexture) {
		log.Printf("[Scene] %s: ready after %d ticks", s.name, s.ticks)
		if s.onReady != nil {
			s.pending = append(s.pending, s.onReady)
		}
	}

	s.rig.Damp(dt)
	if s.machine.State() == view.Gallery {
		s.rig.Drive(s.cam, dt)
	}

	s.pick()
	browsing := s.machine.State() == view.Gallery

	for i, obj := range s.objects {
		obj.Advance(t, s.machine.Frozen(i))
		obj.DampHighlight(browsing && i == s.hovered, highlightDamping, dt)
		s.positions[i] = obj.Position()
	}
	s.streamer.RequestNear(s.cam.Position(), s.positions)

	if step, ok := s.machine.Advance(now, s.cam.Orientation()); ok {
		s.cam.SetPose(step.Position, step.Orientation)
		if step.Done {
			s.commit(step.Kind)
		}
	}

	frustum := common.ExtractFrustum(s.cam.ViewProjectionMatrix())
	for i, obj := range s.objects {
		obj.SetEnabled(frustum.SphereVisible(obj.Position(), cullRadius))
		s.anchors[i] = obj.Anchor()
	}
	s.labels = s.labelLayout.Update(s.cam, s.anchors, labels.Frame{
		Width:   float32(s.width),
		Height:  float32(s.height),
		Gallery: s.machine.State() == view.Gallery,
		Focus:   s.machine.Focus(),
	}, s.labels)

	s.publish()
}

// applyTexture attaches a decoded texture to its object. Caller must hold the mutex.
func (s *scene) applyTexture(r texture.Result) {
	if r.Index < 0 || r.Index >= len(s.objects) {
		return
	}
	s.objects[r.Index].SetTexture(r.Data)
}

// pick resolves the hovered object from the pointer, or the viewport centre while locked.
// Caller must hold the mutex.
func (s *scene) pick() {
	s.hovered = view.NoFocus

	x, y := s.pointer.X(), s.pointer.Y()
	if s.locked {
		x, y = 0, 0
	}
	origin, dir := s.cam.Ray(x, y)

	for i, obj := range s.objects {
		s.surfaces[i] = obj.Surface()
	}
	if hit, ok := (picking.Ray{Origin: origin, Direction: dir}).Nearest(s.surfaces); ok {
		s.hovered = hit.ID
	}
}

// commit finishes a transition. Exiting restores the rig's angles exactly so repeated
// open/close cycles do not accumulate drift. Caller must hold the mutex.
func (s *scene) commit(kind view.Kind) {
	if kind == view.KindExit {
		s.rig.ResetToHome()
		if s.rig.Mode() == camera.ModeSteer {
			s.rig.ClearSteer()
		}
	}
	s.viewChanged()
	log.Printf("[Scene] %s committed: view=%s focus=%d", kind, s.machine.State(), s.machine.Active())
}

// publish swaps in a new snapshot and draw list. Subscribers are signalled only when the
// observable state changed. Caller must hold the mutex.
func (s *scene) publish() {
	snap := &Snapshot{
		Generation: s.generation,
		Tick:       s.ticks,
		View:       s.machine.State(),
		Focus:      s.machine.Focus(),
		Hovered:    s.hovered,
		Ready:      s.streamer.Ready(),
		Locked:     s.locked,
		Loaded:     s.streamer.Loaded(),
		Count:      len(s.objects),
		Labels:     append([]labels.Label(nil), s.labels...),
	}
	prev := s.snapshot.Swap(snap)

	items := make([]FrameItem, 0, len(s.objects))
	for _, obj := range s.objects {
		if !obj.Enabled() {
			continue
		}
		items = append(items, FrameItem{
			Index:       obj.Index(),
			Model:       obj.ModelMatrix(),
			Highlight:   obj.Highlight(),
			Placeholder: obj.Placeholder(),
			Texture:     obj.Texture(),
		})
	}
	s.frame.Store(&Frame{
		Generation: s.generation,
		Tick:       s.ticks,
		Camera:     camera.NewGPUCameraUniform(s.cam, s.fogColor, s.fogNear, s.fogFar),
		Items:      items,
	})

	if prev == nil || changed(prev, snap) {
		select {
		case s.updates <- struct{}{}:
		default:
		}
	}
}

// changed reports whether two snapshots differ in anything an overlay would redraw.
func changed(a, b *Snapshot) bool {
	if a.View != b.View || a.Focus != b.Focus || a.Hovered != b.Hovered || a.Ready != b.Ready ||
		a.Locked != b.Locked || a.Loaded != b.Loaded || len(a.Labels) != len(b.Labels) {
		return true
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			return true
		}
	}
	return false
}
