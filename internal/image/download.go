package imagepkg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/youruser/cardgrid/internal/util"
)

// ErrNotFound means a tier has no art for the card.
var ErrNotFound = errors.New("card art not found")

// Source is one fallible tier of card art.
type Source interface {
	Fetch(ctx context.Context, cardID int) ([]byte, error)
}

// LocalStore reads {Dir}/{cardID}.jpg.
type LocalStore struct {
	Dir string
}

func (s LocalStore) Fetch(_ context.Context, cardID int) ([]byte, error) {
	path := filepath.Join(s.Dir, strconv.Itoa(cardID)+".jpg")
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, path)
	}
	return b, nil
}

// RemoteSource downloads {BaseURL}/{cardID}.jpg. Any non-2xx status or an
// empty body counts as not found.
type RemoteSource struct {
	BaseURL string
	Client  *http.Client
}

func (s RemoteSource) URL(cardID int) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strconv.Itoa(cardID) + ".jpg"
}

func (s RemoteSource) Fetch(ctx context.Context, cardID int) ([]byte, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("%w: no remote base url", ErrNotFound)
	}
	b, err := util.GetBytes(ctx, s.Client, s.URL(cardID))
	if err != nil {
		var se *util.StatusError
		if errors.As(err, &se) || errors.Is(err, util.ErrEmptyBody) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}
	return b, nil
}

// URLSource fetches one fixed URL regardless of card; used for the placeholder art.
type URLSource struct {
	URL    string
	Client *http.Client
}

func (s URLSource) Fetch(ctx context.Context, _ int) ([]byte, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("%w: no url", ErrNotFound)
	}
	return util.GetBytes(ctx, s.Client, s.URL)
}
