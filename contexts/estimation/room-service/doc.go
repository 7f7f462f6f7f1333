// Package roomservice owns estimation rooms and their participants: room
// creation with a shareable join code, the room's card scale, membership and
// role assignment. Downstream modules consume its events to maintain their
// own projections; nothing reads room state across module boundaries.
package roomservice
