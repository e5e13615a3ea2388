// Package domain holds the live-stream model types, the static quality
// profile table, the NSFW content-policy validator, and the repository
// interfaces the session façade operates against.
package domain
