package ecs

import (
	"github.com/phanxgames/cubeportal"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// FrameEventType is the Donburi event type for composited frames. Events are
// queued and delivered by ProcessEvents.
var FrameEventType = events.NewEventType[cubeportal.FrameEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EventStore backed by a Donburi world.
func NewDonburiStore(world donburi.World) cubeportal.EventStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitFrame(event cubeportal.FrameEvent) {
	FrameEventType.Publish(s.world, event)
}
