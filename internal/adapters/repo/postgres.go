package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
)

// Postgres реализует domain.ProfileRepo на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.ProfileRepo = (*Postgres)(nil)

const profileColumns = `id, owner_id, name, breed, age, size, energy_level, friendliness,
is_spayed_neutered, latitude, longitude, created_at, last_active_at`

// Сколько километров в одном градусе широты.
const kmPerDegree = 111.32

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// GetProfile возвращает профиль по идентификатору.
func (p *Postgres) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM dog_profiles WHERE id = $1`, id)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "profile_get", "dog_profiles", start, nil)
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	metrics.ObserveNetworkRequest("postgres", "profile_get", "dog_profiles", start, err)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return profile, nil
}

// GetCandidatePool возвращает недавно активные профили чужих владельцев.
func (p *Postgres) GetCandidatePool(ctx context.Context, excludingOwner string, limit int) ([]domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM dog_profiles
WHERE owner_id <> $1
ORDER BY last_active_at DESC NULLS LAST, created_at DESC
LIMIT $2
`, excludingOwner, limit)
	metrics.ObserveNetworkRequest("postgres", "candidate_pool", "dog_profiles", start, err)
	if err != nil {
		return nil, fmt.Errorf("candidate pool: %w", err)
	}
	return collectProfiles(rows)
}

// GetCandidatePoolNear возвращает профили в радиусе от точки. Сначала выборка
// по ограничивающему прямоугольнику, затем точная отсечка по haversine в SQL.
func (p *Postgres) GetCandidatePoolNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	latDelta, lonDelta := boundingBox(lat, radiusKm)
	lonMin, lonMax, wraps := lonRange(lon, lonDelta)
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM dog_profiles
WHERE latitude BETWEEN $1 - $3 AND $1 + $3
  AND (CASE WHEN $6 THEN longitude >= $4 OR longitude <= $5
            ELSE longitude BETWEEN $4 AND $5 END)
  AND 2 * 6371 * asin(least(1, sqrt(
        power(sin(radians(latitude - $1) / 2), 2) +
        cos(radians($1)) * cos(radians(latitude)) * power(sin(radians(longitude - $2) / 2), 2)
      ))) <= $7
ORDER BY last_active_at DESC NULLS LAST
LIMIT $8
`, lat, lon, latDelta, lonMin, lonMax, wraps, radiusKm, limit)
	metrics.ObserveNetworkRequest("postgres", "candidate_pool_near", "dog_profiles", start, err)
	if err != nil {
		return nil, fmt.Errorf("candidate pool near: %w", err)
	}
	return collectProfiles(rows)
}

// boundingBox переводит радиус в градусы широты и долготы.
func boundingBox(lat, radiusKm float64) (latDelta, lonDelta float64) {
	latDelta = radiusKm / kmPerDegree
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 0.01 {
		return latDelta, 180
	}
	lonDelta = radiusKm / (kmPerDegree * cos)
	if lonDelta > 180 {
		lonDelta = 180
	}
	return latDelta, lonDelta
}

// lonRange возвращает границы долготы в диапазоне [-180,180]. Если окно
// пересекает антимеридиан, wraps равен true и подходят долготы >= min или <= max.
func lonRange(lon, delta float64) (lonMin, lonMax float64, wraps bool) {
	if delta >= 180 {
		return -180, 180, false
	}
	lonMin, lonMax = lon-delta, lon+delta
	switch {
	case lonMin < -180:
		return lonMin + 360, lonMax, true
	case lonMax > 180:
		return lonMin, lonMax - 360, true
	}
	return lonMin, lonMax, false
}

func collectProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	defer rows.Close()
	var out []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		profile      domain.Profile
		name         sql.NullString
		breed        sql.NullString
		age          sql.NullInt32
		size         sql.NullString
		energy       sql.NullString
		friendliness sql.NullString
		spayed       sql.NullBool
		lat          sql.NullFloat64
		lon          sql.NullFloat64
		lastActive   sql.NullTime
	)
	if err := row.Scan(&profile.ID, &profile.OwnerID, &name, &breed, &age, &size, &energy, &friendliness,
		&spayed, &lat, &lon, &profile.CreatedAt, &lastActive); err != nil {
		return domain.Profile{}, err
	}
	profile.Name = name.String
	profile.Breed = breed.String
	profile.Age = int(age.Int32)
	profile.Size = domain.ParseSize(size.String)
	profile.Energy = domain.ParseEnergyLevel(energy.String)
	profile.Friendliness = domain.ParseFriendliness(friendliness.String)
	if spayed.Valid {
		v := spayed.Bool
		profile.Spayed = &v
	}
	if lat.Valid && lon.Valid {
		profile = profile.WithLocation(domain.Location{Lat: lat.Float64, Lon: lon.Float64})
	}
	if lastActive.Valid {
		profile.LastActiveAt = lastActive.Time
	}
	return profile, nil
}
