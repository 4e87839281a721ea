package routing

import "testing"

func TestLookupRoomEntities(t *testing.T) {
	table := NewTable()

	tests := []struct {
		entityID string
		object   string
		field    Field
	}{
		{"input_select.room_101_status", "101", FieldStatus},
		{"climate.room_203_ac", "203", FieldAC},
		{"light.room_102_ceiling", "102", FieldLightCeiling},
		{"light.room_102_side_1", "102", FieldLightSide1},
		{"light.room_102_side_2", "102", FieldLightSide2},
		{"light.room_102_ambient", "102", FieldLightAmbient},
		{"lock.room_301_door", "301", FieldLock},
		{"input_boolean.room_105_window_open", "105", FieldWindow},
		{"switch.room_104_boiler", "104", FieldBoilerSwitch},
		{"sensor.room_104_boiler_runtime", "104", FieldBoilerRuntime},
		{"sensor.room_302_power", "302", FieldRoomPower},
		{"sensor.hotel_total_power", "hotel", FieldTotalPower},
		{"sensor.solar_heater_1_temp", "1", FieldHeaterTemp},
		{"input_number.solar_heater_2_max_threshold", "2", FieldMaxThreshold},
		{"automation.leak_alert", "leak_alert", FieldAutomation},
	}

	for _, tt := range tests {
		target, ok := table.Lookup(tt.entityID)
		if !ok {
			t.Errorf("Lookup(%q): not tracked", tt.entityID)
			continue
		}
		if target.Object != tt.object || target.Field != tt.field {
			t.Errorf("Lookup(%q) = {%s %s}, want {%s %s}",
				tt.entityID, target.Object, target.Field, tt.object, tt.field)
		}
	}
}

func TestUntrackedEntities(t *testing.T) {
	table := NewTable()

	for _, id := range []string{
		"sensor.kitchen_freezer_temp",
		"input_select.room_999_status",
		"light.room_101_bathroom",
		"",
	} {
		if table.IsTracked(id) {
			t.Errorf("IsTracked(%q) = true, want false", id)
		}
	}
}

func TestTableSize(t *testing.T) {
	table := NewTable()

	// 16 entities per room, 7 hotel sensors, 5 per heater, 5 automations.
	want := len(Rooms)*16 + 7 + len(Heaters)*5 + len(Automations)
	if table.Size() != want {
		t.Errorf("Size() = %d, want %d", table.Size(), want)
	}
	if len(table.TrackedIDs()) != want {
		t.Errorf("TrackedIDs() has %d entries, want %d", len(table.TrackedIDs()), want)
	}
}

func TestValidators(t *testing.T) {
	if !ValidRoom("101") || ValidRoom("100") || ValidRoom("") {
		t.Error("ValidRoom accepts wrong rooms")
	}
	if !ValidZone("ceiling") || !ValidZone("side1") || ValidZone("side_1") {
		t.Error("ValidZone accepts wrong zones")
	}
	if !ValidHeater("1") || !ValidHeater("2") || ValidHeater("3") {
		t.Error("ValidHeater accepts wrong heaters")
	}

	if _, ok := AutomationByID("night_lighting"); !ok {
		t.Error("AutomationByID(night_lighting) not found")
	}
	if _, ok := AutomationByID("nope"); ok {
		t.Error("AutomationByID(nope) found")
	}
}
