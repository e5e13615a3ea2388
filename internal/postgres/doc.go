// Package postgres implements the remote data store: stream and stream-event
// repositories over pgx, with atomic counter updates and row-change
// notifications published after every mutation.
package postgres
