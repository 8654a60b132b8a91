package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

// PgProfileDirectory resolves the display identity of the user's active profile
// (brand, artist, creative or fan), falling back to the base profile.
type PgProfileDirectory struct {
	db *sqlx.DB
}

func NewPgProfileDirectory(db *sqlx.DB) *PgProfileDirectory {
	return &PgProfileDirectory{db: db}
}

func (r *PgProfileDirectory) Display(ctx context.Context, userID string) (*domain.ProfileDisplay, error) {
	query := `
		SELECT
			p.id AS user_id,
			COALESCE(NULLIF(b.brand_name, ''), NULLIF(a.artist_name, ''), NULLIF(c.nickname, ''), NULLIF(p.nickname, ''), '') AS name,
			COALESCE(b.logo_image_url, a.logo_image_url, c.profile_image_url, f.profile_image_url, p.avatar_url, '') AS avatar
		FROM profiles p
		LEFT JOIN profile_brands b ON b.profile_id = p.id AND b.is_active
		LEFT JOIN profile_artists a ON a.profile_id = p.id AND a.is_active
		LEFT JOIN profile_creatives c ON c.profile_id = p.id AND c.is_active
		LEFT JOIN profile_fans f ON f.profile_id = p.id AND f.is_active
		WHERE p.id = $1
		LIMIT 1
	`
	var display domain.ProfileDisplay
	if err := r.db.GetContext(ctx, &display, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &display, nil
}
