// Package routing maps upstream entity IDs to the hotel domain objects they
// belong to. The table is built once at startup from the fixed property
// layout (rooms, energy sensors, solar heaters, automations) and is shared
// by the server pipeline and the client reducers.
package routing

import "fmt"

// Rooms lists every room in the property, grouped visually by floor.
var Rooms = []string{"101", "102", "103", "104", "105", "201", "202", "203", "301", "302"}

// FloorRooms groups room IDs by floor for UI tabs.
var FloorRooms = map[string][]string{
	"1": {"101", "102", "103", "104", "105"},
	"2": {"201", "202", "203"},
	"3": {"301", "302"},
}

// RoomStatuses are the values the room status select can take.
var RoomStatuses = []string{"Occupied", "Vacant", "Cleaning", "Preparing"}

// LightZones are the controllable light zones in each room.
var LightZones = []string{"ceiling", "side1", "side2", "ambient"}

// Heaters lists the central solar heater IDs.
var Heaters = []string{"1", "2"}

// Field identifies which slot of a domain object an entity feeds.
type Field string

// Room fields.
const (
	FieldStatus       Field = "status"
	FieldAC           Field = "ac"
	FieldLightCeiling Field = "light_ceiling"
	FieldLightSide1   Field = "light_side1"
	FieldLightSide2   Field = "light_side2"
	FieldLightAmbient Field = "light_ambient"
	FieldLock         Field = "lock"
	FieldWindow       Field = "window"
	FieldBoilerSource Field = "boiler_source"
	FieldHotWaterTemp Field = "hot_water_temp"
	FieldHumidity     Field = "humidity"
	FieldSmokeAlert   Field = "smoke_alert"
	FieldLeakAlert    Field = "leak_alert"
)

// Energy fields. Object is "hotel" for the global sensors, the room ID for
// per-room power.
const (
	FieldTotalPower    Field = "total_power"
	FieldTodayEnergy   Field = "today_energy"
	FieldSavings       Field = "savings"
	FieldACPower       Field = "ac_power"
	FieldLightingPower Field = "lighting_power"
	FieldBoilerPower   Field = "boiler_power"
	FieldOtherPower    Field = "other_power"
	FieldRoomPower     Field = "room_power"
)

// Hot water fields. Object is the heater ID for heater fields, the room ID
// for boiler fields.
const (
	FieldHeaterTemp      Field = "heater_temp"
	FieldCollectorTemp   Field = "collector_temp"
	FieldHeaterElement   Field = "heater_element"
	FieldMinThreshold    Field = "min_threshold"
	FieldMaxThreshold    Field = "max_threshold"
	FieldBoilerSwitch    Field = "boiler_switch"
	FieldBoilerRuntime   Field = "boiler_runtime"
)

// Automation field. Object is the automation ID.
const FieldAutomation Field = "automation"

// Target is the domain-side address of one upstream entity.
type Target struct {
	Object string
	Field  Field
}

// Automation describes one fixed automation known to the dashboard.
type Automation struct {
	ID       string
	EntityID string
	Label    string
	Desc     string
	Icon     string
}

// Automations is the fixed list of platform automations shown in the UI.
var Automations = []Automation{
	{ID: "ac_window_shutoff", EntityID: "automation.ac_window_shutoff",
		Label: "Κλιματισμός με ανοιχτό παράθυρο", Desc: "Σβήνει το κλιματιστικό όταν ανοίξει παράθυρο", Icon: "wind"},
	{ID: "checkout_reset", EntityID: "automation.checkout_reset",
		Label: "Επαναφορά μετά το check-out", Desc: "Κλείνει φώτα και κλιματισμό στο check-out", Icon: "rotate-ccw"},
	{ID: "night_lighting", EntityID: "automation.night_lighting",
		Label: "Νυχτερινός φωτισμός", Desc: "Χαμηλώνει τα φώτα των κοινόχρηστων χώρων", Icon: "moon"},
	{ID: "boiler_schedule", EntityID: "automation.boiler_schedule",
		Label: "Πρόγραμμα θερμοσιφώνων", Desc: "Ενεργοποιεί τους θερμοσίφωνες πριν το check-in", Icon: "clock"},
	{ID: "leak_alert", EntityID: "automation.leak_alert",
		Label: "Ειδοποίηση διαρροής", Desc: "Στέλνει ειδοποίηση σε αισθητήρα διαρροής", Icon: "droplets"},
}

// Entity ID builders. The naming scheme is owned by the automation platform
// configuration and must match it exactly.

func StatusEntity(room string) string       { return "input_select.room_" + room + "_status" }
func ACEntity(room string) string           { return "climate.room_" + room + "_ac" }
func LockEntity(room string) string         { return "lock.room_" + room + "_door" }
func WindowEntity(room string) string       { return "input_boolean.room_" + room + "_window_open" }
func BoilerSourceEntity(room string) string { return "input_select.room_" + room + "_boiler_source" }
func HotWaterTempEntity(room string) string { return "input_number.room_" + room + "_hot_water_temp" }
func HumidityEntity(room string) string     { return "input_number.room_" + room + "_humidity" }
func SmokeAlertEntity(room string) string   { return "input_boolean.room_" + room + "_smoke_alert" }
func LeakAlertEntity(room string) string    { return "input_boolean.room_" + room + "_leak_alert" }
func RoomPowerEntity(room string) string    { return "sensor.room_" + room + "_power" }
func BoilerSwitchEntity(room string) string { return "switch.room_" + room + "_boiler" }
func BoilerRuntimeEntity(room string) string {
	return "sensor.room_" + room + "_boiler_runtime"
}

// LightEntity returns the entity ID for a room light zone. Zone must be one
// of LightZones.
func LightEntity(room, zone string) string {
	suffix := map[string]string{
		"ceiling": "ceiling",
		"side1":   "side_1",
		"side2":   "side_2",
		"ambient": "ambient",
	}[zone]
	return fmt.Sprintf("light.room_%s_%s", room, suffix)
}

// Global energy sensor entity IDs.
const (
	TotalPowerEntity    = "sensor.hotel_total_power"
	TodayEnergyEntity   = "sensor.hotel_today_energy"
	SavingsEntity       = "sensor.hotel_savings"
	ACPowerEntity       = "sensor.hotel_ac_power"
	LightingPowerEntity = "sensor.hotel_lighting_power"
	BoilerPowerEntity   = "sensor.hotel_boiler_power"
	OtherPowerEntity    = "sensor.hotel_other_power"
)

func HeaterTempEntity(id string) string      { return "sensor.solar_heater_" + id + "_temp" }
func HeaterCollectorEntity(id string) string { return "sensor.solar_heater_" + id + "_collector_temp" }
func HeaterElementEntity(id string) string   { return "switch.solar_heater_" + id + "_element" }
func HeaterMinEntity(id string) string       { return "input_number.solar_heater_" + id + "_min_threshold" }
func HeaterMaxEntity(id string) string       { return "input_number.solar_heater_" + id + "_max_threshold" }

// Table is the static entity routing table. Safe for concurrent reads after
// construction; never mutated afterwards.
type Table struct {
	byEntity map[string]Target
}

// NewTable builds the full routing table for the property.
func NewTable() *Table {
	t := &Table{byEntity: make(map[string]Target)}

	for _, room := range Rooms {
		t.add(StatusEntity(room), room, FieldStatus)
		t.add(ACEntity(room), room, FieldAC)
		t.add(LightEntity(room, "ceiling"), room, FieldLightCeiling)
		t.add(LightEntity(room, "side1"), room, FieldLightSide1)
		t.add(LightEntity(room, "side2"), room, FieldLightSide2)
		t.add(LightEntity(room, "ambient"), room, FieldLightAmbient)
		t.add(LockEntity(room), room, FieldLock)
		t.add(WindowEntity(room), room, FieldWindow)
		t.add(BoilerSourceEntity(room), room, FieldBoilerSource)
		t.add(HotWaterTempEntity(room), room, FieldHotWaterTemp)
		t.add(HumidityEntity(room), room, FieldHumidity)
		t.add(SmokeAlertEntity(room), room, FieldSmokeAlert)
		t.add(LeakAlertEntity(room), room, FieldLeakAlert)

		t.add(RoomPowerEntity(room), room, FieldRoomPower)
		t.add(BoilerSwitchEntity(room), room, FieldBoilerSwitch)
		t.add(BoilerRuntimeEntity(room), room, FieldBoilerRuntime)
	}

	t.add(TotalPowerEntity, "hotel", FieldTotalPower)
	t.add(TodayEnergyEntity, "hotel", FieldTodayEnergy)
	t.add(SavingsEntity, "hotel", FieldSavings)
	t.add(ACPowerEntity, "hotel", FieldACPower)
	t.add(LightingPowerEntity, "hotel", FieldLightingPower)
	t.add(BoilerPowerEntity, "hotel", FieldBoilerPower)
	t.add(OtherPowerEntity, "hotel", FieldOtherPower)

	for _, h := range Heaters {
		t.add(HeaterTempEntity(h), h, FieldHeaterTemp)
		t.add(HeaterCollectorEntity(h), h, FieldCollectorTemp)
		t.add(HeaterElementEntity(h), h, FieldHeaterElement)
		t.add(HeaterMinEntity(h), h, FieldMinThreshold)
		t.add(HeaterMaxEntity(h), h, FieldMaxThreshold)
	}

	for _, a := range Automations {
		t.add(a.EntityID, a.ID, FieldAutomation)
	}

	return t
}

func (t *Table) add(entityID, object string, field Field) {
	t.byEntity[entityID] = Target{Object: object, Field: field}
}

// Lookup returns the domain target for an entity ID. The second return is
// false for entities the dashboard does not track.
func (t *Table) Lookup(entityID string) (Target, bool) {
	target, ok := t.byEntity[entityID]
	return target, ok
}

// IsTracked reports whether the entity ID appears in the table. Only tracked
// entities are broadcast to browsers; everything else is cached but not
// forwarded.
func (t *Table) IsTracked(entityID string) bool {
	_, ok := t.byEntity[entityID]
	return ok
}

// TrackedIDs returns a copy of all tracked entity IDs.
func (t *Table) TrackedIDs() []string {
	ids := make([]string, 0, len(t.byEntity))
	for id := range t.byEntity {
		ids = append(ids, id)
	}
	return ids
}

// Size returns the number of tracked entities.
func (t *Table) Size() int { return len(t.byEntity) }

// ValidRoom reports whether the room ID exists in the property.
func ValidRoom(room string) bool {
	for _, r := range Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// ValidZone reports whether the light zone name is known.
func ValidZone(zone string) bool {
	for _, z := range LightZones {
		if z == zone {
			return true
		}
	}
	return false
}

// ValidHeater reports whether the heater ID exists.
func ValidHeater(id string) bool {
	for _, h := range Heaters {
		if h == id {
			return true
		}
	}
	return false
}

// AutomationByID returns the automation with the given ID.
func AutomationByID(id string) (Automation, bool) {
	for _, a := range Automations {
		if a.ID == id {
			return a, true
		}
	}
	return Automation{}, false
}
