package ingress

import "time"

// RegisterTouristRequest is the body of POST /registerTourist.
type RegisterTouristRequest struct {
	Name           string `json:"name" validate:"required"`
	ContactPhone   string `json:"contact_phone" validate:"required"`
	EmergencyPhone string `json:"emergency_phone" validate:"required"`
	Age            *int   `json:"age,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	PassportNo     string `json:"passport_no,omitempty"`
}

// SendLocationRequest is the body of POST /sendLocation.
type SendLocationRequest struct {
	TouristID uint     `json:"tourist_id" validate:"required"`
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// PressSOSRequest is the body of POST /pressSOS.
type PressSOSRequest struct {
	TouristID     uint    `json:"tourist_id" validate:"required"`
	Latitude      float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64 `json:"longitude" validate:"gte=-180,lte=180"`
	EmergencyType string  `json:"emergency_type,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// FileEFIRRequest is the body of POST /fileEFIR.
type FileEFIRRequest struct {
	TouristID   uint     `json:"tourist_id" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ResolveAlertRequest is the body of PUT /resolveAlert/{id}.
type ResolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by" validate:"required"`
	Notes      string `json:"notes,omitempty"`
}

// SendLocationResponse is the data payload of a successful /sendLocation.
type SendLocationResponse struct {
	LocationID        uint        `json:"location_id"`
	Assessment        interface{} `json:"assessment"`
	AlertGenerated    bool        `json:"alert_generated"`
	UpdatedSafetyScore int        `json:"updated_safety_score"`
}

// PressSOSResponse is the data payload of a successful /pressSOS.
type PressSOSResponse struct {
	AlertID                    uint   `json:"alert_id"`
	CaseNumber                 string `json:"case_number"`
	EmergencyServicesNotified  bool   `json:"emergency_services_notified"`
}

// FileEFIRResponse is the data payload of a successful /fileEFIR.
type FileEFIRResponse struct {
	AlertID    uint   `json:"alert_id"`
	CaseNumber string `json:"case_number"`
}

// DataStats is the data payload of GET /ai/data/stats.
type DataStats struct {
	TouristCount      int64 `json:"tourist_count"`
	LocationCount     int64 `json:"location_count"`
	AlertCount        int64 `json:"alert_count"`
	LocationsLastHour int64 `json:"locations_last_hour"`
	AlertsLastHour    int64 `json:"alerts_last_hour"`
	InFlightRequests  int64 `json:"in_flight_requests"`
	AsOf              time.Time `json:"as_of"`
}
