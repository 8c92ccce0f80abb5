package models

import "time"

type SchoolEvent struct {
	ID                int64     `db:"id"`
	Name              string    `db:"name"`
	StartDate         time.Time `db:"start_date"`
	EndDate           time.Time `db:"end_date"`
	StartTime         string    `db:"start_time"` // "HH:MM"
	ToleranceOverride *int      `db:"tolerance_override"`
}
