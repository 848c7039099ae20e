// Package catalog provides read-only access to the switch catalog, including
// exact, pattern, characteristic, and vector-similarity lookups.
package catalog

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrNotFound = errors.New("switch not found")
)

// SwitchType classifies the actuation feel of a switch.
type SwitchType string

const (
	SwitchTypeLinear  SwitchType = "linear"
	SwitchTypeTactile SwitchType = "tactile"
	SwitchTypeClicky  SwitchType = "clicky"
)

// SwitchRecord is a canonical catalog entry. Records are read-only snapshots;
// optional fields are pointers so that absent data stays distinguishable from
// zero values.
type SwitchRecord struct {
	ID               uuid.UUID
	Name             string
	Manufacturer     *string
	Type             *SwitchType
	TopHousing       *string
	BottomHousing    *string
	Stem             *string
	Mount            *string
	Spring           *string
	ActuationForceG  *float64
	BottomOutForceG  *float64
	PreTravelMm      *float64
	TotalTravelMm    *float64
	Embedding        []float32
}

// VectorMatch pairs a record with its cosine similarity to a query vector.
type VectorMatch struct {
	Record     *SwitchRecord
	Similarity float64
}

// scanRecord maps one SQL row onto a SwitchRecord. This is the single place
// where nullable columns become typed optional fields.
func scanRecord(rows interface {
	Scan(dest ...interface{}) error
}) (*SwitchRecord, error) {
	var (
		rec          SwitchRecord
		manufacturer sql.NullString
		switchType   sql.NullString
		topHousing   sql.NullString
		bottom       sql.NullString
		stem         sql.NullString
		mount        sql.NullString
		spring       sql.NullString
		actuation    sql.NullFloat64
		bottomOut    sql.NullFloat64
		preTravel    sql.NullFloat64
		totalTravel  sql.NullFloat64
	)

	err := rows.Scan(
		&rec.ID, &rec.Name, &manufacturer, &switchType,
		&topHousing, &bottom, &stem, &mount, &spring,
		&actuation, &bottomOut, &preTravel, &totalTravel,
	)
	if err != nil {
		return nil, err
	}

	applyNullable(&rec, manufacturer, switchType, topHousing, bottom, stem, mount, spring,
		actuation, bottomOut, preTravel, totalTravel)

	return &rec, nil
}
