package habitstack

import (
	"strings"
	"testing"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

func TestEncodeFormat(t *testing.T) {
	got := Encode(Stack{
		Trigger:     model.HabitTrigger{Type: "time", Value: "07:30"},
		IsActive:    true,
		Description: "Morning reset",
	})
	want := `[HABIT_STACK][TRIGGER:{"type":"time","value":"07:30"}][ACTIVE:true] Morning reset`
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeEmptyDescription(t *testing.T) {
	got := Encode(Stack{Trigger: DefaultTrigger(), IsActive: false})
	if strings.HasSuffix(got, " ") {
		t.Errorf("Encode = %q, should not end with a space", got)
	}
	if !strings.HasSuffix(got, "[ACTIVE:false]") {
		t.Errorf("Encode = %q, want active flag last", got)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Stack{
		{Trigger: model.HabitTrigger{Type: "time", Value: "08:00"}, IsActive: true, Description: "Wake up and stretch"},
		{Trigger: model.HabitTrigger{Type: "location", Value: "gym"}, IsActive: false, Description: ""},
		{Trigger: model.HabitTrigger{Type: "event", Value: "after lunch"}, IsActive: true, Description: "Walk [10 min"},
		{Trigger: model.HabitTrigger{Type: "after_ritual", Value: "42"}, IsActive: false, Description: "  padded text  "},
		{Trigger: model.HabitTrigger{Type: "event", Value: "coffee & <news>"}, IsActive: true, Description: "Read"},
		{Trigger: model.HabitTrigger{Type: "location", Value: "desk [home]"}, IsActive: false, Description: "Plan the day"},
	}
	for _, in := range cases {
		out := Decode(Encode(in))
		if out.Trigger != in.Trigger {
			t.Errorf("trigger = %+v, want %+v", out.Trigger, in.Trigger)
		}
		if out.IsActive != in.IsActive {
			t.Errorf("isActive = %v, want %v", out.IsActive, in.IsActive)
		}
		if out.Description != strings.TrimSpace(in.Description) {
			t.Errorf("description = %q, want %q", out.Description, strings.TrimSpace(in.Description))
		}
	}
}

func TestDecodeMissingSegments(t *testing.T) {
	s := Decode("[HABIT_STACK] just text")
	if s.Trigger != DefaultTrigger() {
		t.Errorf("trigger = %+v, want default", s.Trigger)
	}
	if !s.IsActive {
		t.Error("expected active by default")
	}
	if s.Description != "just text" {
		t.Errorf("description = %q, want %q", s.Description, "just text")
	}
}

func TestDecodeMalformedSegments(t *testing.T) {
	s := Decode("[HABIT_STACK][TRIGGER:{not json}][ACTIVE:maybe] hello")
	if s.Trigger != DefaultTrigger() {
		t.Errorf("trigger = %+v, want default", s.Trigger)
	}
	if !s.IsActive {
		t.Error("expected active for unparseable flag")
	}
	if s.Description != "hello" {
		t.Errorf("description = %q, want %q", s.Description, "hello")
	}
}

func TestDecodePlainDescription(t *testing.T) {
	s := Decode("no markers here")
	if s.Description != "no markers here" {
		t.Errorf("description = %q", s.Description)
	}
	if IsEncoded("no markers here") {
		t.Error("IsEncoded should be false")
	}
}

func TestValidTriggerType(t *testing.T) {
	for _, tt := range []string{"time", "location", "event", "after_ritual"} {
		if !ValidTriggerType(tt) {
			t.Errorf("ValidTriggerType(%q) = false", tt)
		}
	}
	if ValidTriggerType("weather") {
		t.Error("ValidTriggerType(weather) = true")
	}
}
