package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Asset is a published screenshot.
type Asset struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Folder    string    `json:"folder,omitempty"`
	Format    string    `json:"format,omitempty"`
	Bytes     int64     `json:"bytes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`

	// Raw, when set, is emitted instead of the fields above.
	Raw json.RawMessage `json:"-"`
}

func (a Asset) MarshalJSON() ([]byte, error) {
	if a.Raw != nil {
		return a.Raw, nil
	}
	type plain Asset
	return json.Marshal(plain(a))
}

type UploadInput struct {
	// Path is the local file to upload.
	Path   string
	Folder string
	// Name is the object name inside Folder.
	Name string
}

type Storage interface {
	// Upload publishes the file at input.Path and returns its metadata
	Upload(ctx context.Context, input UploadInput) (*Asset, error)
	// List returns every published asset in the order the backend reports them
	List(ctx context.Context) ([]Asset, error)
}
