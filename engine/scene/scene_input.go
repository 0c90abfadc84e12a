package scene

import (
	"log"
	"math"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
	"github.com/go-gl/mathgl/mgl32"
)

// ndc converts window pixels to normalized device coordinates, +Y up. Caller must hold the mutex.
func (s *scene) ndc(x, y float64) mgl32.Vec2 {
	if s.width <= 0 || s.height <= 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{
		float32(x/float64(s.width)*2 - 1),
		float32(-(y/float64(s.height)*2 - 1)),
	}
}

func (s *scene) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = s.ndc(x, y)
	s.rig.SetSteer(s.pointer.X(), s.pointer.Y())
}

func (s *scene) LookMotion(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.locked || s.machine.State() != view.Gallery {
		return
	}
	s.rig.AddLook(float32(dx), float32(dy))
}

func (s *scene) PointerDown(x, y float64) {
	s.mu.Lock()
	if !s.interacted {
		s.interacted = true
		if s.onInteract != nil {
			s.pending = append(s.pending, s.onInteract)
		}
	}
	s.pressed = true
	s.pressAt = [2]float64{x, y}
	s.pointer = s.ndc(x, y)
	s.rig.SetSteer(s.pointer.X(), s.pointer.Y())
	s.mu.Unlock()
	s.flush()
}

func (s *scene) PointerUp(x, y float64) {
	s.mu.Lock()
	wasPressed := s.pressed
	s.pressed = false
	s.pointer = s.ndc(x, y)
	s.rig.SetSteer(s.pointer.X(), s.pointer.Y())

	if wasPressed && math.Hypot(x-s.pressAt[0], y-s.pressAt[1]) <= clickSlop {
		s.click()
	}
	s.mu.Unlock()
	s.flush()
}

// click opens the hovered object in the gallery view. In the look scheme an unlocked click
// requests pointer lock instead. Caller must hold the mutex.
func (s *scene) click() {
	if s.machine.State() != view.Gallery {
		return
	}
	if s.rig.Mode() == camera.ModeLook && !s.locked {
		if s.onLockRequest != nil {
			cb := s.onLockRequest
			s.pending = append(s.pending, func() { cb(true) })
		}
		return
	}
	if s.hovered != view.NoFocus {
		s.open(s.hovered)
	}
}

func (s *scene) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = mgl32.Vec2{}
	s.pressed = false
	s.rig.ClearSteer()
}

func (s *scene) Wheel(deltaY float64) {
	s.mu.Lock()
	switch s.machine.State() {
	case view.Gallery:
		s.rig.Dolly(s.cam, float32(deltaY))
	case view.Project:
		if step := s.rig.ScrollStep(float32(deltaY)); step != 0 {
			s.navigate(step)
		}
	}
	s.mu.Unlock()
	s.flush()
}

func (s *scene) KeyDown(keyCode uint32) {
	s.mu.Lock()
	switch keyCode {
	case common.KeyEscape:
		if s.machine.State() == view.Project {
			s.close()
		} else if s.locked && s.onLockRequest != nil {
			cb := s.onLockRequest
			s.pending = append(s.pending, func() { cb(false) })
		}
	case common.KeyEnter:
		if s.machine.State() == view.Gallery && s.hovered != view.NoFocus {
			s.open(s.hovered)
		}
	case common.KeyRight:
		if s.machine.State() == view.Project {
			s.navigate(1)
		} else {
			s.rig.SetKey(keyCode, true)
		}
	case common.KeyLeft:
		if s.machine.State() == view.Project {
			s.navigate(-1)
		} else {
			s.rig.SetKey(keyCode, true)
		}
	default:
		s.rig.SetKey(keyCode, true)
	}
	s.mu.Unlock()
	s.flush()
}

func (s *scene) KeyUp(keyCode uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rig.SetKey(keyCode, false)
}

func (s *scene) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = width, height
	s.cam.SetAspect(float32(width) / float32(height))
}

func (s *scene) PointerLockChanged(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked == locked {
		return
	}
	s.locked = locked
	if !locked {
		s.rig.ReleaseKeys()
	}
	log.Printf("[Scene] pointer lock engaged=%t", locked)
}

func (s *scene) PointerLockError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
	s.rig.ReleaseKeys()
	log.Printf("[Scene] pointer lock failed: %v", err)
}
