// Package query computes filtered, annotated, paginated views of the
// server set. The stages run in a fixed order over immutable slices, so
// any combination of client parameters yields a deterministic result.
package query

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chathub/domain"
	"chathub/errors"
	"chathub/repositories"
)

// Params are the composable listing inputs. Zero values disable a stage.
type Params struct {
	Category       string
	ByUser         bool
	WithNumMembers bool
	ByServerID     string
	Qty            *int
}

// Projection is one listing row. NumMembers is only present when the
// annotation stage ran; otherwise the field is absent from the JSON.
type Projection struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	OwnerID     string           `json:"owner_id"`
	Category    string           `json:"category"`
	Description string           `json:"description,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Channels    []domain.Channel `json:"channels"`
	NumMembers  *int             `json:"num_members,omitempty"`
}

type entry struct {
	record     repositories.ServerRecord
	numMembers *int
}

type stage func([]entry) ([]entry, error)

// Run applies the requested stages in their fixed order: category
// filter, caller-membership filter, member-count annotation, id
// narrowing, then truncation. The input snapshot is already in creation
// order and every stage preserves relative order.
func Run(params Params, caller *domain.Identity, records []repositories.ServerRecord, categoryNames map[uuid.UUID]string) ([]Projection, error) {
	entries := lo.Map(records, func(r repositories.ServerRecord, _ int) entry {
		return entry{record: r}
	})

	for _, apply := range stages(params, caller, categoryNames) {
		var err error
		entries, err = apply(entries)
		if err != nil {
			return nil, err
		}
	}

	return lo.Map(entries, func(e entry, _ int) Projection {
		return Projection{
			ID:          e.record.Server.ID,
			Name:        e.record.Server.Name,
			OwnerID:     e.record.Server.OwnerID,
			Category:    categoryNames[e.record.Server.CategoryID],
			Description: e.record.Server.Description,
			CreatedAt:   e.record.Server.CreatedAt,
			Channels:    e.record.Channels,
			NumMembers:  e.numMembers,
		}
	}), nil
}

func stages(params Params, caller *domain.Identity, categoryNames map[uuid.UUID]string) []stage {
	var list []stage
	if params.Category != "" {
		list = append(list, filterCategory(params.Category, categoryNames))
	}
	if params.ByUser {
		list = append(list, filterMemberOf(caller))
	}
	if params.WithNumMembers {
		list = append(list, annotateNumMembers)
	}
	if params.ByServerID != "" {
		list = append(list, narrowToServer(params.ByServerID))
	}
	if params.Qty != nil {
		list = append(list, truncate(*params.Qty))
	}
	return list
}

// filterCategory keeps servers whose category name equals the value,
// case-sensitive.
func filterCategory(name string, categoryNames map[uuid.UUID]string) stage {
	return func(entries []entry) ([]entry, error) {
		return lo.Filter(entries, func(e entry, _ int) bool {
			return categoryNames[e.record.Server.CategoryID] == name
		}), nil
	}
}

func filterMemberOf(caller *domain.Identity) stage {
	return func(entries []entry) ([]entry, error) {
		if caller == nil {
			return nil, errors.ErrUnauthenticated
		}
		return lo.Filter(entries, func(e entry, _ int) bool {
			return lo.Contains(e.record.Members, caller.ID)
		}), nil
	}
}

// annotateNumMembers counts the membership set as seen by the snapshot,
// after any narrowing filters already ran.
func annotateNumMembers(entries []entry) ([]entry, error) {
	return lo.Map(entries, func(e entry, _ int) entry {
		e.numMembers = lo.ToPtr(len(e.record.Members))
		return e
	}), nil
}

func narrowToServer(rawID string) stage {
	return func(entries []entry) ([]entry, error) {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, errors.Wrap(errors.KindValidation, err, "server value error")
		}
		matched := lo.Filter(entries, func(e entry, _ int) bool {
			return e.record.Server.ID == id
		})
		if len(matched) == 0 {
			return nil, errors.Ef(errors.KindValidation, "server with id %s not found", rawID)
		}
		return matched, nil
	}
}

func truncate(qty int) stage {
	return func(entries []entry) ([]entry, error) {
		if qty < len(entries) {
			return entries[:qty], nil
		}
		return entries, nil
	}
}
