// Package band implements the repertoire workflows on top of the document
// store: groups, songs and their slots, artists, setlists, rehearsals and
// song sheets.
package band

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/enrich"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

var ErrUnauthorized = errors.New("not allowed to change this resource")

// ValidationError reports input that was rejected before touching the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// RequireConfirm guards destructive operations.
func RequireConfirm(confirm bool) error {
	if !confirm {
		return invalid("confirm", "destructive operation requires confirm=true")
	}
	return nil
}

type Enricher interface {
	Enrich(ctx context.Context, title, artist string) (enrich.Result, error)
}

type Service struct {
	store    *db.Store
	Slots    *lineup.Catalog
	Parts    *lineup.Participations
	enricher Enricher
	files    storage.Storage

	now   func() time.Time
	newID func() string
}

// NewService wires the workflows. files may be nil, in which case stored
// files of deleted songs are left in place.
func NewService(store *db.Store, enricher Enricher, files storage.Storage) *Service {
	return &Service{
		store:    store,
		Slots:    lineup.NewCatalog(store),
		Parts:    lineup.NewParticipations(store),
		enricher: enricher,
		files:    files,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *Service) Store() *db.Store { return s.store }

// memberOf loads the group and checks userID belongs to it.
func (s *Service) memberOf(ctx context.Context, userID, groupID string) (model.Group, error) {
	g, err := s.store.Groups.Get(ctx, groupID)
	if err != nil {
		return model.Group{}, fmt.Errorf("group %s: %w", groupID, err)
	}
	if !g.HasMember(userID) {
		return model.Group{}, ErrUnauthorized
	}
	return g, nil
}

func (s *Service) slotIDs(ctx context.Context) ([]string, error) {
	slots, err := s.Slots.List(ctx)
	if err != nil {
		return nil, err
	}
	return db.IDs(slots), nil
}

func removeString(list []string, v string) []string {
	out := list[:0:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
