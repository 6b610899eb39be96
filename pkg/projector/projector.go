// Package projector maps one fetched station record onto the hierarchical
// state store: one container per station, one leaf per telemetry field.
package projector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sofarbridge/sofarbridge/pkg/log"
	"github.com/sofarbridge/sofarbridge/pkg/schema"
	"github.com/sofarbridge/sofarbridge/pkg/statetree"
	"github.com/sofarbridge/sofarbridge/pkg/types"
)

// Project writes a single station record into the store. The container id is
// the sanitized station id, or the positional index when the record has none.
// A failing field does not stop the remaining fields; all per-field errors
// are joined into the returned error.
func Project(ctx context.Context, store statetree.Store, record types.StationRecord, idx int) error {
	id := schema.SanitizeID(record.ID())
	if id == "" {
		id = strconv.Itoa(idx)
	}
	name := record.Name()
	if name == "" {
		name = id
	}
	if err := store.EnsureContainer(ctx, id, name); err != nil {
		return fmt.Errorf("failed to ensure container for station %s: %w", id, err)
	}

	var errs []error
	for _, field := range record.Fields() {
		v := record[field]
		// null carries no type to infer; projecting it would lock the leaf's
		// set-once metadata to an empty type before a real reading arrives
		if v.Kind() == types.KindComposite || v.Kind() == types.KindNull {
			continue
		}
		// unit fields only annotate their sibling, they get no leaf
		if strings.HasSuffix(strings.ToLower(field), "unit") {
			continue
		}
		var unit string
		if u, ok := record[field+"Unit"]; ok && u.Kind() == types.KindString {
			unit = u.Str()
		}
		role, typ := schema.Infer(v, field)
		leaf := types.Leaf{
			Field: field,
			Name:  field,
			Type:  typ,
			Role:  role,
			Unit:  unit,
			Read:  true,
			Write: false,
		}
		if err := store.EnsureLeaf(ctx, id, leaf); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to ensure leaf",
				slog.String("station", id), slog.String("field", field), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("leaf %s.%s: %w", id, field, err))
			continue
		}
		if err := store.WriteValue(ctx, id, field, v); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to write value",
				slog.String("station", id), slog.String("field", field), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("value %s.%s: %w", id, field, err))
		}
	}
	return errors.Join(errs...)
}
