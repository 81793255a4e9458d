// Package playback drives an embedded third-party video player on behalf of a
// viewer: it issues transport commands (play/pause/seek/volume/rate), mirrors
// the player's asynchronous state into a snapshot the UI can render, keeps the
// player surface fitted to its host viewport through resizes and fullscreen
// transitions, hides the on-screen controls after a few idle seconds, and
// periodically persists a student's watched position.
//
// A Session owns three timers: a one-shot poll that waits for the player
// library to become available, a position/completion tick, and a
// buffered-fraction tick. All of them, plus the idle-hide timer and the
// player instance itself, are torn down by Close.
//
// Persistence is deliberately fire-and-forget: a failed write is logged and
// dropped, and is superseded by the next tick a second later. See BestEffort.
package playback
