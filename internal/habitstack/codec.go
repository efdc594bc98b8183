// Package habitstack reads and writes the legacy habit-stack description
// format, in which trigger and active-flag metadata are embedded in a ritual
// loop's description as bracket-tagged segments:
//
//	[HABIT_STACK][TRIGGER:{"type":"time","value":"08:00"}][ACTIVE:true] Morning reset
package habitstack

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

const Marker = "[HABIT_STACK]"

const (
	TriggerTime        = "time"
	TriggerLocation    = "location"
	TriggerEvent       = "event"
	TriggerAfterRitual = "after_ritual"
)

var (
	markerRe  = regexp.MustCompile(`\[HABIT_STACK\]`)
	// The trigger is a JSON object, so it ends at the first "}]" rather than
	// the first "]"; values may contain brackets.
	triggerRe = regexp.MustCompile(`\[TRIGGER:(\{.*?\})\]`)
	activeRe  = regexp.MustCompile(`\[ACTIVE:([^\]]*)\]`)
)

// Stack is the decoded form of an encoded description.
type Stack struct {
	Trigger     model.HabitTrigger
	IsActive    bool
	Description string
}

// DefaultTrigger is used when a description carries no readable trigger.
func DefaultTrigger() model.HabitTrigger {
	return model.HabitTrigger{Type: TriggerTime, Value: "08:00"}
}

// ValidTriggerType reports whether t is a known trigger type.
func ValidTriggerType(t string) bool {
	switch t {
	case TriggerTime, TriggerLocation, TriggerEvent, TriggerAfterRitual:
		return true
	}
	return false
}

// Encode serializes s into the bracket-tagged description format.
func Encode(s Stack) string {
	trigger, err := json.Marshal(s.Trigger)
	if err != nil {
		trigger, _ = json.Marshal(DefaultTrigger())
	}
	out := fmt.Sprintf("%s[TRIGGER:%s][ACTIVE:%t]", Marker, trigger, s.IsActive)
	if desc := strings.TrimSpace(s.Description); desc != "" {
		out += " " + desc
	}
	return out
}

// IsEncoded reports whether description carries the habit-stack marker.
func IsEncoded(description string) bool {
	return strings.Contains(description, Marker)
}

// Decode extracts the trigger, active flag and plain description from an
// encoded description. Missing or malformed segments fall back to the
// default trigger and an active stack.
func Decode(description string) Stack {
	s := Stack{Trigger: DefaultTrigger(), IsActive: true}

	if m := triggerRe.FindStringSubmatch(description); m != nil {
		var t model.HabitTrigger
		if err := json.Unmarshal([]byte(m[1]), &t); err == nil && t.Type != "" {
			s.Trigger = t
		}
	}
	if m := activeRe.FindStringSubmatch(description); m != nil {
		switch strings.TrimSpace(m[1]) {
		case "false":
			s.IsActive = false
		case "true":
			s.IsActive = true
		}
	}

	plain := markerRe.ReplaceAllString(description, "")
	plain = triggerRe.ReplaceAllString(plain, "")
	plain = activeRe.ReplaceAllString(plain, "")
	s.Description = strings.TrimSpace(plain)
	return s
}
