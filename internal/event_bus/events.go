package event_bus

import "time"

const (
	EntryUpserted EventType = "entry.upserted"
	EntryDeleted  EventType = "entry.deleted"
)

// EntryChanged is the payload carried by EntryUpserted and EntryDeleted.
type EntryChanged struct {
	UID  string
	Date time.Time
}
