// Package blob keeps small images (player mugshots, club badges, country
// flags) in Redis.
package blob

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/padraicbc/footy/apperr"
)

const keyPrefix = "footy:blob"

// Placeholder is served when a container has no blob under the asked name.
const Placeholder = "placeholder.png"

// Containers that may be read and written.
var Containers = []string{"mugshots", "badges", "flags"}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

var ErrBlobNotFound = apperr.NotFound("blob not found")

// Object is a stored blob.
type Object struct {
	ContentType string
	Data        []byte
}

type Store struct {
	client *redis.Client
}

// New connects to url and verifies the connection.
func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func blobKey(container, name string) string {
	return fmt.Sprintf("%s:%s/%s", keyPrefix, container, name)
}

func validate(container, name string) error {
	if !slices.Contains(Containers, container) {
		return apperr.Validation("unknown container", nil)
	}
	if !validName.MatchString(name) {
		return apperr.Validation("invalid blob name", nil)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, container, name string) (*Object, error) {
	if err := validate(container, name); err != nil {
		return nil, err
	}
	vals, err := s.client.HGetAll(ctx, blobKey(container, name)).Result()
	if err != nil {
		return nil, apperr.External("blob store", err)
	}
	data, ok := vals["data"]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return &Object{ContentType: vals["type"], Data: []byte(data)}, nil
}

func (s *Store) Put(ctx context.Context, container, name string, obj Object) error {
	if err := validate(container, name); err != nil {
		return err
	}
	if len(obj.Data) == 0 {
		return apperr.Validation("empty blob", nil)
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	err := s.client.HSet(ctx, blobKey(container, name), "type", obj.ContentType, "data", obj.Data).Err()
	if err != nil {
		return apperr.External("blob store", err)
	}
	return nil
}

// Open returns the named blob, falling back to the container placeholder.
func (s *Store) Open(ctx context.Context, container, name string) (*Object, error) {
	obj, err := s.Get(ctx, container, name)
	if err == nil || !errors.Is(err, ErrBlobNotFound) {
		return obj, err
	}
	return s.Get(ctx, container, Placeholder)
}
