// Package lineup holds the slot-assignment model: the instrument slot catalog,
// participations of users and artists on songs, the playability rule and the
// reports built from them.
package lineup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

const (
	SlotDrums  = "drums"
	SlotVocals = "vocals"
	SlotBass   = "bass"
	SlotGuitar = "guitar"
	SlotChoir  = "choir"
	SlotPiano  = "piano"

	customSlotPrefix = "custom_"
	DefaultSlotIcon  = "🎵"
)

var (
	ErrProtectedSlot = errors.New("default slots cannot be deleted")
	ErrEmptySlotName = errors.New("slot name is required")
)

// DefaultSlots are created at boot and can never be deleted.
var DefaultSlots = []model.InstrumentSlot{
	{ID: SlotDrums, Name: "Batterie", Icon: "🥁"},
	{ID: SlotVocals, Name: "Chant", Icon: "🎤"},
	{ID: SlotBass, Name: "Basse", Icon: "🎸"},
	{ID: SlotGuitar, Name: "Guitare", Icon: "🎸"},
	{ID: SlotChoir, Name: "Chœur", Icon: "🎶"},
	{ID: SlotPiano, Name: "Piano", Icon: "🎹"},
}

func IsDefaultSlot(id string) bool {
	return defaultRank(id) >= 0
}

func defaultRank(id string) int {
	for i, s := range DefaultSlots {
		if s.ID == id {
			return i
		}
	}
	return -1
}

type Catalog struct {
	slots db.Collection[model.InstrumentSlot]
	parts db.Collection[model.Participation]
	now   func() time.Time
}

func NewCatalog(store *db.Store) *Catalog {
	return &Catalog{slots: store.Slots, parts: store.Participations, now: time.Now}
}

// EnsureDefaults creates whichever default slots are missing.
func (c *Catalog) EnsureDefaults(ctx context.Context) error {
	for _, s := range DefaultSlots {
		_, err := c.slots.Get(ctx, s.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		if err := c.slots.Create(ctx, s); err != nil && !errors.Is(err, db.ErrConflict) {
			log.Error().Err(err).Str("slot_id", s.ID).Msg("[lineup] EnsureDefaults: create failed")
			return err
		}
	}
	return nil
}

// List returns the defaults in their canonical order followed by custom slots
// ordered by id.
func (c *Catalog) List(ctx context.Context) ([]model.InstrumentSlot, error) {
	slots, err := c.slots.List(ctx)
	if err != nil {
		return nil, err
	}
	SortSlots(slots)
	return slots, nil
}

func SortSlots(slots []model.InstrumentSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		ri, rj := defaultRank(slots[i].ID), defaultRank(slots[j].ID)
		switch {
		case ri >= 0 && rj >= 0:
			return ri < rj
		case ri >= 0:
			return true
		case rj >= 0:
			return false
		}
		return slots[i].ID < slots[j].ID
	})
}

func (c *Catalog) Exists(ctx context.Context, id string) bool {
	_, err := c.slots.Get(ctx, id)
	return err == nil
}

// Add creates a custom slot. Ids are derived from the creation time; a
// numeric suffix is appended when two slots are created in the same
// millisecond.
func (c *Catalog) Add(ctx context.Context, name, icon string) (model.InstrumentSlot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.InstrumentSlot{}, ErrEmptySlotName
	}
	if strings.TrimSpace(icon) == "" {
		icon = DefaultSlotIcon
	}

	base := fmt.Sprintf("%s%d", customSlotPrefix, c.now().UnixMilli())
	slot := model.InstrumentSlot{ID: base, Name: name, Icon: icon}
	for n := 1; ; n++ {
		err := c.slots.Create(ctx, slot)
		if err == nil {
			return slot, nil
		}
		if !errors.Is(err, db.ErrConflict) || n > 100 {
			log.Error().Err(err).Str("slot_id", slot.ID).Msg("[lineup] Add: create failed")
			return model.InstrumentSlot{}, err
		}
		slot.ID = fmt.Sprintf("%s_%d", base, n)
	}
}

// Delete removes a custom slot and every participation on it.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if IsDefaultSlot(id) {
		return ErrProtectedSlot
	}
	if _, err := c.slots.Get(ctx, id); err != nil {
		return err
	}
	// participations go first so a failed cascade never leaves rows on a
	// missing slot
	removed, err := deleteParticipations(ctx, c.parts, func(p model.Participation) bool { return p.SlotID == id })
	if err != nil {
		log.Error().Err(err).Str("slot_id", id).Msg("[lineup] Delete: participation cascade failed")
		return fmt.Errorf("cascade slot %s: %w", id, err)
	}
	if err := c.slots.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("slot_id", id).Int("participations", removed).Msg("[lineup] slot deleted")
	return nil
}
