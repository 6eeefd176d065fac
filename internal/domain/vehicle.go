package domain

import "time"

// VehicleStatus represents the current status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusOperative      VehicleStatus = "OPERATIVE"
	VehicleStatusAssignedToTrip VehicleStatus = "ASSIGNED_TO_TRIP"
	VehicleStatusMaintenance    VehicleStatus = "MAINTENANCE"
	VehicleStatusOutOfService   VehicleStatus = "OUT_OF_SERVICE"
)

// Vehicle represents a vehicle in the fleet.
//
// A vehicle with a scheduled downtime window stays OPERATIVE until the
// window starts; the downtime sweeper applies DowntimeTarget once
// DowntimeStart has passed and reverts to OPERATIVE once DowntimeEnd has
// passed.
type Vehicle struct {
	ID           string
	Registration string
	Capacity     int
	Status       VehicleStatus
	LocalityID   string
	Disabled     bool

	// Scheduled downtime window. DowntimePending is true while the window
	// is stored but has not started yet.
	DowntimeStart   time.Time
	DowntimeEnd     time.Time
	DowntimeTarget  VehicleStatus
	DowntimePending bool
}

// HasDowntime reports whether a downtime window is stored (pending or active).
func (v *Vehicle) HasDowntime() bool {
	return !v.DowntimeStart.IsZero()
}

// ClearDowntime removes any stored downtime window.
func (v *Vehicle) ClearDowntime() {
	v.DowntimeStart = time.Time{}
	v.DowntimeEnd = time.Time{}
	v.DowntimeTarget = ""
	v.DowntimePending = false
}
