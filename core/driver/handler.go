package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rfebrian/storefront/api/web"
	"github.com/rfebrian/storefront/api/weberr"
	"github.com/rfebrian/storefront/validate"
)

var ErrNotFound = errors.New("driver not found")

func Create(ctx context.Context, db sqlx.ExtContext, d Driver) error {
	const q = `
	INSERT INTO drivers (driver_id, name, active, created_at, updated_at)
	VALUES (:driver_id, :name, :active, :created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, db, q, d)
	return err
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Driver, error) {
	const q = `SELECT * FROM drivers WHERE driver_id = $1`

	var d Driver
	if err := sqlx.GetContext(ctx, db, &d, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Driver{}, ErrNotFound
		}
		return Driver{}, err
	}

	return d, nil
}

// StorePosition keeps only the latest coordinate per driver.
func StorePosition(ctx context.Context, db sqlx.ExtContext, pos Position) error {
	const q = `
	INSERT INTO driver_positions (driver_id, latitude, longitude, recorded_at)
	VALUES (:driver_id, :latitude, :longitude, :recorded_at)
	ON CONFLICT (driver_id)
	DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, recorded_at = EXCLUDED.recorded_at`

	_, err := sqlx.NamedExecContext(ctx, db, q, pos)
	return err
}

func FetchPosition(ctx context.Context, db sqlx.ExtContext, driverID string) (Position, error) {
	const q = `SELECT * FROM driver_positions WHERE driver_id = $1`

	var pos Position
	if err := sqlx.GetContext(ctx, db, &pos, q, driverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Position{}, ErrNotFound
		}
		return Position{}, err
	}

	return pos, nil
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var dn DriverNew
		if err := web.Decode(w, r, &dn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(dn); err != nil {
			return weberr.BadRequest(err)
		}

		now := time.Now().UTC()
		d := Driver{
			ID:        validate.GenerateID(),
			Name:      dn.Name,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, d); err != nil {
			return fmt.Errorf("creating driver: %w", err)
		}

		return web.Respond(ctx, w, d, http.StatusCreated)
	}
}

func HandleUpdatePosition(db *sqlx.DB, hub *Hub) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var pu PositionUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.BadRequest(err)
		}

		if _, err := Fetch(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching driver[%s]: %w", id, err)
		}

		pos := Position{
			DriverID:   id,
			Latitude:   pu.Latitude,
			Longitude:  pu.Longitude,
			RecordedAt: time.Now().UTC(),
		}

		if err := StorePosition(ctx, db, pos); err != nil {
			return fmt.Errorf("storing position of driver[%s]: %w", id, err)
		}

		hub.Publish(pos)

		return web.Respond(ctx, w, pos, http.StatusOK)
	}
}

func HandleShowPosition(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		pos, err := FetchPosition(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching position of driver[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, pos, http.StatusOK)
	}
}
