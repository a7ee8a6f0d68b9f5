package intelligence

import (
	"fmt"
	"strings"
)

// FactSystem is the registry key holding the checklist system chosen for a case.
const FactSystem = "system"

// ChecklistContext is the input to the deterministic fallback.
type ChecklistContext struct {
	CaseTitle      string
	Unit           string
	TechnicianText string
	Facts          map[string]string // answered steps, keyed by step key
}

// ChecklistResponse is the next deterministic diagnostic step.
type ChecklistResponse struct {
	Text     string
	System   string
	StepKey  string // empty once every step is answered
	Complete bool
}

type checklistStep struct {
	key      string
	question string
}

type checklistSystem struct {
	name     string
	label    string
	keywords []string
	steps    []checklistStep
}

var checklistSystems = []checklistSystem{
	{
		name:     "electrical_12v",
		label:    "12V DC electrical",
		keywords: []string{"12v", "battery", "fuse", "converter", "light", " dc ", "inverter", "батаре", "предохранит", "batería", "fusible"},
		steps: []checklistStep{
			{"electrical_12v.battery_voltage", "Measure house battery voltage at the terminals with the shore power disconnected. What is the reading?"},
			{"electrical_12v.disconnect", "Is the battery disconnect switch ON and are the terminals clean and tight?"},
			{"electrical_12v.fuse", "Check the fuse for the affected circuit in the DC distribution panel. Is it intact?"},
			{"electrical_12v.converter_output", "With shore power connected, measure converter output at the panel. What voltage do you see?"},
			{"electrical_12v.load_voltage", "Measure voltage at the affected device's connector with the switch ON. What is the reading?"},
		},
	},
	{
		name:     "lp_furnace",
		label:    "LP gas / furnace",
		keywords: []string{"furnace", "propane", " lp ", "gas", "heater", "ignit", "печ", "газ", "отоплен", "calefacción", "gas lp", "horno"},
		steps: []checklistStep{
			{"lp_furnace.lp_supply", "Is LP tank valve open and does the stove burner light normally?"},
			{"lp_furnace.thermostat", "Set the thermostat 5 degrees above room temperature. Does the blower start?"},
			{"lp_furnace.sail_switch", "With the blower running, does the sail switch close (continuity across its terminals)?"},
			{"lp_furnace.ignition", "Do you hear or see the igniter sparking, and does the burner light?"},
			{"lp_furnace.board_fault", "Does the control board show a fault code or lockout? What is it?"},
		},
	},
	{
		name:     "water",
		label:    "fresh water / plumbing",
		keywords: []string{"water", "pump", "leak", "faucet", "tank", "plumb", "вода", "насос", "теч", "agua", "bomba", "fuga"},
		steps: []checklistStep{
			{"water.tank_level", "Is there water in the fresh tank and is the tank vent clear?"},
			{"water.pump_power", "Does the water pump receive 12V when its switch is ON?"},
			{"water.pump_runs", "Does the pump run, and does it cycle with all faucets closed?"},
			{"water.bypass", "Are the water heater bypass valves in the correct position?"},
			{"water.leak_location", "Where is water visible? Describe the closest fitting or line."},
		},
	},
	{
		name:     "slide_out",
		label:    "slide-out",
		keywords: []string{"slide", "slideout", "слайд", "выдвиж", "deslizable"},
		steps: []checklistStep{
			{"slide_out.battery_voltage", "What is the battery voltage while operating the slide switch?"},
			{"slide_out.motor_power", "Does the slide motor receive voltage when the switch is pressed?"},
			{"slide_out.obstruction", "Is anything blocking the slide room (debris, seals, floor)?"},
			{"slide_out.mechanism", "Is the slide gear, cable or rail mechanism intact and aligned?"},
		},
	},
	{
		name:     "air_conditioning",
		label:    "roof air conditioner",
		keywords: []string{"a/c", " ac ", "air condition", "air-condition", "cooling", "compressor", "кондиционер", "aire acondicionado"},
		steps: []checklistStep{
			{"air_conditioning.shore_power", "What AC voltage do you measure at an outlet with the unit running?"},
			{"air_conditioning.breaker", "Is the A/C breaker ON and not tripping?"},
			{"air_conditioning.fan_runs", "Does the indoor fan run on fan-only mode?"},
			{"air_conditioning.compressor", "Does the compressor start on cool? Is there a hum or click?"},
			{"air_conditioning.capacitor", "Test the start/run capacitor. Is it within rating?"},
		},
	},
	{
		name:     "generator",
		label:    "generator",
		keywords: []string{"generator", "genset", "onan", "генератор", "generador"},
		steps: []checklistStep{
			{"generator.fuel", "Is the fuel level above the generator pickup (usually 1/4 tank)?"},
			{"generator.oil", "Is the generator oil level correct?"},
			{"generator.cranks", "Does the generator crank when started? Does it start and then stop?"},
			{"generator.fault_code", "Does the start switch blink a fault code? How many flashes?"},
		},
	},
}

var generalSystem = checklistSystem{
	name:  "general",
	label: "general",
	steps: []checklistStep{
		{"general.symptom", "Describe the symptom: what happens, and what should happen?"},
		{"general.when", "When does it occur (always, intermittently, only on shore power or battery)?"},
		{"general.recent_work", "Has any recent service or modification been done near the affected area?"},
		{"general.visual", "Do a visual inspection of the affected area. Any damage, burn marks or loose connections?"},
	},
}

// BuildChecklistResponse produces the next diagnostic checklist step without
// a language model. Steps already present in Facts are never asked again.
// Text is never empty.
func BuildChecklistResponse(cc ChecklistContext) ChecklistResponse {
	system := selectChecklistSystem(cc)
	resp := ChecklistResponse{System: system.name}

	answered := 0
	for _, step := range system.steps {
		if _, ok := cc.Facts[step.key]; ok {
			answered++
			continue
		}
		resp.StepKey = step.key
		resp.Text = fmt.Sprintf(
			"The assistant is unavailable, continuing with the %s checklist (step %d of %d).\n%s",
			system.label, answered+1, len(system.steps), step.question,
		)
		return resp
	}

	resp.Complete = true
	resp.Text = fmt.Sprintf(
		"All %s checklist steps are recorded. Confirm the labor hours and request the final report when the repair is done.",
		system.label,
	)
	return resp
}

func selectChecklistSystem(cc ChecklistContext) checklistSystem {
	if name := cc.Facts[FactSystem]; name != "" {
		if name == generalSystem.name {
			return generalSystem
		}
		for _, s := range checklistSystems {
			if s.name == name {
				return s
			}
		}
	}

	haystack := " " + strings.ToLower(strings.Join([]string{cc.CaseTitle, cc.Unit, cc.TechnicianText}, " ")) + " "
	best, bestHits := generalSystem, 0
	for _, s := range checklistSystems {
		hits := 0
		for _, kw := range s.keywords {
			if strings.Contains(haystack, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = s, hits
		}
	}
	return best
}
