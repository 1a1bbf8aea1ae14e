package core

import (
	"bytes"
	"context"
)

type (
	Document struct {
		Data bytes.Buffer
	}

	DocumentStore interface {
		FindID(ctx context.Context, id string) (*Document, error)
		Create(ctx context.Context, document *Document) (string, error)
	}

	// Room is a named synchronization scope. The owner is the only
	// connection allowed to move CurrentPage; followers mirror it.
	Room struct {
		ID          string
		CurrentPage int
		DocumentURL string
		OwnerID     string
		Users       int
		LastActive  int64
	}

	// RoomNotifier is how the upload path reaches the realtime layer
	// without depending on it.
	RoomNotifier interface {
		DocumentAssigned(roomID, locator string, page int)
	}
)
