// Package ecs provides ECS adapters for cubeportal's frame events.
//
// The primary adapter is [NewDonburiStore], which publishes one
// [cubeportal.FrameEvent] per composited frame into a [Donburi] world.
// Subscribe to [FrameEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	loading := cubeportal.Load(ctx, container, cubeportal.WithEventStore(store))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
