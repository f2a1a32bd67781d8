// Package ecs provides ECS adapters for flipbook.
package ecs

import (
	"github.com/phanxgames/flipbook"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// PlaybackEventType is the Donburi event type for flipbook playback events.
var PlaybackEventType = events.NewEventType[flipbook.PlaybackEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EventSink backed by a Donburi world.
// Playback events are published to PlaybackEventType and can be consumed
// with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) flipbook.EventSink {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event flipbook.PlaybackEvent) {
	PlaybackEventType.Publish(s.world, event)
}
