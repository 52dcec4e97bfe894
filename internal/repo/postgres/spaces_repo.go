package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

const spaceColumns = `space_id, settings, supervisors, joins, bans, maintenance_hits, schema_version, added_on`

type SpacesRepo struct {
	pool *pgxpool.Pool
}

func NewSpacesRepo(pool *pgxpool.Pool) *SpacesRepo {
	return &SpacesRepo{pool: pool}
}

// GetOrCreate returns the stored document, inserting a default one first if
// the space is unknown. created reports whether the insert happened.
func (r *SpacesRepo) GetOrCreate(ctx context.Context, spaceID int64) (model.SpaceDocument, bool, error) {
	if r.pool == nil {
		return model.SpaceDocument{}, false, fmt.Errorf("postgres pool is nil")
	}

	defaults, err := json.Marshal(model.DefaultSettings())
	if err != nil {
		return model.SpaceDocument{}, false, fmt.Errorf("marshal default settings: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO spaces (space_id, settings, schema_version, added_on)
		VALUES ($1, $2::jsonb, $3, NOW())
		ON CONFLICT (space_id) DO NOTHING
	`, spaceID, string(defaults), model.CurrentSettingsVersion)
	if err != nil {
		return model.SpaceDocument{}, false, fmt.Errorf("insert default space: %w", err)
	}

	row := r.pool.QueryRow(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE space_id = $1`, spaceID)
	doc, err := scanSpace(row)
	if err != nil {
		return model.SpaceDocument{}, false, fmt.Errorf("get space: %w", err)
	}

	return doc, tag.RowsAffected() == 1, nil
}

// SaveUpgrade moves a record from fromVersion to toVersion in place. The
// legacy rejoin_ban key is renamed inside the statement so settings written
// since the record was read are kept. false means another writer upgraded it
// first.
func (r *SpacesRepo) SaveUpgrade(ctx context.Context, spaceID int64, fromVersion, toVersion int) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE spaces
		SET settings = CASE
		        WHEN settings ? $4::text AND NOT settings ? $5::text
		        THEN (settings - $4::text) || jsonb_build_object($5::text, settings->$4::text)
		        ELSE settings
		    END,
		    schema_version = $3
		WHERE space_id = $1 AND schema_version = $2
	`, spaceID, fromVersion, toVersion, string(enums.SettingLegacyRejoinBan), string(enums.SettingAntiHitRun))
	if err != nil {
		return false, fmt.Errorf("save upgraded settings: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetSetting writes one key. Older aliases of the key are dropped in the same
// statement so they cannot shadow the new value on a later upgrade.
func (r *SpacesRepo) SetSetting(ctx context.Context, spaceID int64, key enums.SettingKey, value any) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}
	defaults := model.DefaultSettings()
	defaults[string(key)] = value
	initial, err := json.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal default settings: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO spaces (space_id, settings, schema_version, added_on)
		VALUES ($1, $2::jsonb, $3, NOW())
		ON CONFLICT (space_id)
		DO UPDATE SET settings = (spaces.settings - $6::text[]) || jsonb_build_object($4::text, $5::jsonb)
	`, spaceID, string(initial), model.CurrentSettingsVersion, string(key), string(encoded), aliasNames(key))
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// ToggleSetting flips a boolean setting in one statement and returns the
// stored value. A record that only carries an older alias of the key flips
// that value. A missing or non-boolean value counts as false.
func (r *SpacesRepo) ToggleSetting(ctx context.Context, spaceID int64, key enums.SettingKey) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	defaults := model.DefaultSettings()
	defaults[string(key)] = true
	initial, err := json.Marshal(defaults)
	if err != nil {
		return false, fmt.Errorf("marshal default settings: %w", err)
	}

	var value bool
	err = r.pool.QueryRow(ctx, `
		INSERT INTO spaces (space_id, settings, schema_version, added_on)
		VALUES ($1, $2::jsonb, $3, NOW())
		ON CONFLICT (space_id)
		DO UPDATE SET settings = (spaces.settings - $5::text[]) || jsonb_build_object(
			$4::text,
			NOT COALESCE(
				spaces.settings->>$4::text = 'true',
				(SELECT spaces.settings->>alias = 'true'
				   FROM unnest($5::text[]) AS alias
				  WHERE spaces.settings ? alias
				  LIMIT 1),
				false
			)
		)
		RETURNING COALESCE(settings->>$4::text = 'true', false)
	`, spaceID, string(initial), model.CurrentSettingsVersion, string(key), aliasNames(key)).Scan(&value)
	if err != nil {
		return false, fmt.Errorf("toggle setting %s: %w", key, err)
	}
	return value, nil
}

func aliasNames(key enums.SettingKey) []string {
	aliases := key.StoredAliases()
	names := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		names = append(names, string(alias))
	}
	return names
}

func (r *SpacesRepo) IncrementStat(ctx context.Context, spaceID int64, field enums.StatField) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	var query string
	switch field {
	case enums.StatJoins:
		query = incrementQuery("joins")
	case enums.StatBans:
		query = incrementQuery("bans")
	case enums.StatMaintenanceHits:
		query = incrementQuery("maintenance_hits")
	default:
		return fmt.Errorf("unknown stat field %q", field)
	}

	defaults, err := json.Marshal(model.DefaultSettings())
	if err != nil {
		return fmt.Errorf("marshal default settings: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, spaceID, string(defaults), model.CurrentSettingsVersion); err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	return nil
}

func incrementQuery(column string) string {
	return `
		INSERT INTO spaces (space_id, settings, schema_version, added_on, ` + column + `)
		VALUES ($1, $2::jsonb, $3, NOW(), 1)
		ON CONFLICT (space_id)
		DO UPDATE SET ` + column + ` = spaces.` + column + ` + 1`
}

func (r *SpacesRepo) AddSupervisor(ctx context.Context, spaceID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	defaults, err := json.Marshal(model.DefaultSettings())
	if err != nil {
		return false, fmt.Errorf("marshal default settings: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO spaces (space_id, settings, schema_version, added_on, supervisors)
		VALUES ($1, $2::jsonb, $3, NOW(), ARRAY[$4::bigint])
		ON CONFLICT (space_id)
		DO UPDATE SET supervisors = array_append(spaces.supervisors, $4::bigint)
		WHERE NOT ($4::bigint = ANY(spaces.supervisors))
	`, spaceID, string(defaults), model.CurrentSettingsVersion, userID)
	if err != nil {
		return false, fmt.Errorf("add supervisor: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SpacesRepo) RemoveSupervisor(ctx context.Context, spaceID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE spaces
		SET supervisors = array_remove(supervisors, $2::bigint)
		WHERE space_id = $1 AND $2::bigint = ANY(supervisors)
	`, spaceID, userID)
	if err != nil {
		return false, fmt.Errorf("remove supervisor: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SpacesRepo) IsSupervisor(ctx context.Context, spaceID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM spaces WHERE space_id = $1 AND $2::bigint = ANY(supervisors))
	`, spaceID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check supervisor: %w", err)
	}
	return exists, nil
}

func (r *SpacesRepo) ListAll(ctx context.Context) ([]model.SpaceDocument, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY added_on`)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	result := make([]model.SpaceDocument, 0)
	for rows.Next() {
		doc, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan space row: %w", err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate space rows: %w", err)
	}

	return result, nil
}

func (r *SpacesRepo) GlobalStats(ctx context.Context) (model.GlobalStats, error) {
	if r.pool == nil {
		return model.GlobalStats{}, fmt.Errorf("postgres pool is nil")
	}

	var stats model.GlobalStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(joins), 0)::bigint,
		       COALESCE(SUM(bans), 0)::bigint,
		       COALESCE(SUM(maintenance_hits), 0)::bigint
		FROM spaces
	`).Scan(&stats.Spaces, &stats.Joins, &stats.Bans, &stats.MaintenanceHits)
	if err != nil {
		return model.GlobalStats{}, fmt.Errorf("aggregate global stats: %w", err)
	}
	return stats, nil
}

func scanSpace(row pgx.Row) (model.SpaceDocument, error) {
	var doc model.SpaceDocument
	var settings map[string]any
	err := row.Scan(
		&doc.ID,
		&settings,
		&doc.Supervisors,
		&doc.Stats.Joins,
		&doc.Stats.Bans,
		&doc.Stats.MaintenanceHits,
		&doc.SchemaVersion,
		&doc.AddedOn,
	)
	if err != nil {
		return model.SpaceDocument{}, err
	}
	if settings == nil {
		settings = map[string]any{}
	}
	doc.Settings = settings
	return doc, nil
}
