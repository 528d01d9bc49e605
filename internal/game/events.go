package game

// EventKind tags a state-change notification.
type EventKind string

const (
	EventCashChanged      EventKind = "cashChanged"
	EventInventoryChanged EventKind = "inventoryChanged"
	EventWarrantChanged   EventKind = "warrantChanged"
	EventGangChanged      EventKind = "gangChanged"
	EventGunsChanged      EventKind = "gunsChanged"
	EventTravelled        EventKind = "travelled"
	EventDayAdvanced      EventKind = "dayAdvanced"
	EventBaseAdded        EventKind = "baseAdded"
	EventBaseChanged      EventKind = "baseChanged"
	EventAssetBought      EventKind = "assetBought"
	EventAssetSold        EventKind = "assetSold"
	EventSupplyRestocked  EventKind = "supplyRestocked"
	EventPoliceRaid       EventKind = "policeRaid"
	EventRaidResolved     EventKind = "raidResolved"
	EventBribePaid        EventKind = "bribePaid"
)

// Event is a structured state-change notification for observers (the UI
// layer, the event log). The engine never formats display strings.
type Event struct {
	Kind      EventKind `json:"kind"`
	Day       int       `json:"day"`
	City      string    `json:"city,omitempty"`
	Commodity string    `json:"commodity,omitempty"`
	Delta     int       `json:"delta,omitempty"`
	Value     int       `json:"value,omitempty"`
	Detail    any       `json:"detail,omitempty"`
}

// Listener receives every event emitted by the ledger and engines.
type Listener func(Event)
