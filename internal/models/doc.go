// Package models defines the values that flow through a playlist generation cycle.
//
// A cycle starts from a [PlaylistRequest] collected from the user, receives a [PlaylistSpec] from the
// completion service, resolves every [SongSpec] to a [TrackReference] through catalog search ([Track] hits),
// and ends with a materialized [Playlist] owned by the authenticated [User].
//
// All values are transient: they live for the duration of one cycle and are never persisted.
package models
