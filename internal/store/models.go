// Package store provides the persistent store for schedules, the append-only
// action log, and the sensor reading history, backed by a local SQLite
// database.
package store

import (
	"time"
)

// Device enumerates the controllable devices.
type Device string

const (
	// DeviceWatering is the watering pump.
	DeviceWatering Device = "watering"
	// DeviceLighting is the grow light.
	DeviceLighting Device = "lighting"
)

// Valid reports whether d is a known device.
func (d Device) Valid() bool {
	return d == DeviceWatering || d == DeviceLighting
}

// ScheduleEntry represents a daily recurring task stored in the database.
// Entries are never updated in place: they are created by a schedule request
// and removed by cancel or cancel-all.
type ScheduleEntry struct {
	CreatedAt time.Time `gorm:"autoCreateTime"`
	Device    Device    `gorm:"not null;index"`
	TimeOfDay string    `gorm:"not null;index"`      // wall clock "HH:MM", recurs daily
	Action    string    `gorm:"not null;default:''"` // lighting only: "on" or "off"
	Duration  int       `gorm:"not null"`            // minutes; 0 for lighting
	ID        uint      `gorm:"primaryKey"`
}

// TableName specifies the table name for ScheduleEntry model.
func (ScheduleEntry) TableName() string {
	return "schedules"
}

// ActionLogEntry is one append-only record of a performed action.
type ActionLogEntry struct {
	Timestamp time.Time `gorm:"autoCreateTime;index"`
	Action    string    `gorm:"not null"`
	ID        uint      `gorm:"primaryKey"`
}

// TableName specifies the table name for ActionLogEntry model.
func (ActionLogEntry) TableName() string {
	return "logs"
}

// SensorReading is one historical row of aggregated sensor values.
type SensorReading struct {
	Timestamp    time.Time `gorm:"autoCreateTime;index"`
	SoilMoisture float64   `gorm:"not null"`
	LightLevel   float64   `gorm:"not null"`
	Temperature  float64   `gorm:"not null"`
	Humidity     float64   `gorm:"not null"`
	ID           uint      `gorm:"primaryKey"`
}

// TableName specifies the table name for SensorReading model.
func (SensorReading) TableName() string {
	return "sensor_readings"
}
