package driver

import "time"

type Driver struct {
	ID        string    `json:"id" db:"driver_id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type DriverNew struct {
	Name string `json:"name" validate:"required"`
}

type Position struct {
	DriverID   string    `json:"driverId" db:"driver_id"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
}

type PositionUp struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}
