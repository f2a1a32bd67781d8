// Package ecs provides ECS adapters for flipbook's playback events.
//
// The primary adapter is [NewDonburiStore], which forwards playback events
// (scene changes, reached slides, seeks, recalculations) into a [Donburi]
// world as typed events. Subscribe to [PlaybackEventType] in your ECS systems
// to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	pb := flipbook.NewPlaybackManager(flipbook.WithEventSink(store))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
