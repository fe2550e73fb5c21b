package storage

import "io"

// BlobStore holds user-uploaded binaries, currently profile avatars.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// AvatarKey is the canonical blob key for a user's profile picture.
func AvatarKey(userID string) string { return "avatars/" + userID }
