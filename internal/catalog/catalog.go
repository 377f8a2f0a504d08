// AngelaMos | 2026
// catalog.go

// Package catalog holds the fixed service types, their checklist items and
// the reaction emojis clients may use.
package catalog

import (
	"slices"
	"strings"
)

type service struct {
	label     string
	checklist []string
}

var serviceOrder = []string{
	"pool_cleaning",
	"garden_service",
	"general_cleaning",
	"property_check",
	"key_holding",
	"handyman",
	"pest_control",
	"other",
}

var services = map[string]service{
	"pool_cleaning": {
		label: "Pool cleaning",
		checklist: []string{
			"pool_filter_cleaned",
			"pool_chemicals_added",
			"pool_surface_skimmed",
			"pool_vacuumed",
			"pool_water_level_checked",
		},
	},
	"garden_service": {
		label: "Garden service",
		checklist: []string{
			"garden_mowed",
			"garden_hedges_trimmed",
			"garden_weeds_removed",
			"garden_irrigation_checked",
		},
	},
	"general_cleaning": {
		label: "General cleaning",
		checklist: []string{
			"cleaning_floors_done",
			"cleaning_kitchen_done",
			"cleaning_bathroom_done",
			"cleaning_trash_removed",
		},
	},
	"property_check": {
		label: "Property check",
		checklist: []string{
			"property_visual_inspection",
			"property_water_leaks_checked",
			"property_electricity_checked",
			"property_security_checked",
		},
	},
	"key_holding": {
		label: "Key holding",
		checklist: []string{
			"key_entry_exit_logged",
			"key_doors_windows_secured",
			"key_alarm_checked",
		},
	},
	"handyman": {
		label: "Handyman",
		checklist: []string{
			"handyman_minor_repairs_done",
			"handyman_fixtures_checked",
			"handyman_tools_supplies_checked",
		},
	},
	"pest_control": {
		label: "Pest control",
		checklist: []string{
			"pest_traps_checked",
			"pest_treatment_applied",
			"pest_activity_logged",
		},
	},
	"other": {
		label:     "Other",
		checklist: []string{"other_service_completed"},
	},
}

var checklistLabels = map[string]string{
	"pool_filter_cleaned":             "Pool filter cleaned",
	"pool_chemicals_added":            "Pool chemicals added",
	"pool_surface_skimmed":            "Pool surface skimmed",
	"pool_vacuumed":                   "Pool vacuumed",
	"pool_water_level_checked":        "Pool water level checked",
	"garden_mowed":                    "Garden mowed",
	"garden_hedges_trimmed":           "Garden hedges trimmed",
	"garden_weeds_removed":            "Garden weeds removed",
	"garden_irrigation_checked":       "Garden irrigation checked",
	"cleaning_floors_done":            "Floors cleaned",
	"cleaning_kitchen_done":           "Kitchen cleaned",
	"cleaning_bathroom_done":          "Bathroom cleaned",
	"cleaning_trash_removed":          "Trash removed",
	"property_visual_inspection":      "Visual inspection completed",
	"property_water_leaks_checked":    "Water leaks checked",
	"property_electricity_checked":    "Electricity checked",
	"property_security_checked":       "Security checked",
	"key_entry_exit_logged":           "Entry/exit logged",
	"key_doors_windows_secured":       "Doors/windows secured",
	"key_alarm_checked":               "Alarm checked",
	"handyman_minor_repairs_done":     "Minor repairs done",
	"handyman_fixtures_checked":       "Fixtures checked",
	"handyman_tools_supplies_checked": "Tools/supplies checked",
	"pest_traps_checked":              "Traps checked",
	"pest_treatment_applied":          "Treatment applied",
	"pest_activity_logged":            "Pest activity logged",
	"other_service_completed":         "Service completed",
}

var reactionEmojis = []string{"👍", "❤️", "🔥", "👏", "😮"}

func ServiceTypes() []string {
	return slices.Clone(serviceOrder)
}

func ValidServiceType(serviceType string) bool {
	_, ok := services[serviceType]
	return ok
}

// ServiceLabel falls back to the raw value for unknown types.
func ServiceLabel(serviceType string) string {
	if s, ok := services[serviceType]; ok {
		return s.label
	}
	return serviceType
}

func ChecklistLabel(item string) string {
	if label, ok := checklistLabels[item]; ok {
		return label
	}
	return item
}

// FilterChecklist keeps the items allowed for serviceType, trimmed and
// deduplicated in submission order.
func FilterChecklist(serviceType string, items []string) []string {
	allowed := services[serviceType].checklist
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if !slices.Contains(allowed, item) || slices.Contains(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FilterServiceTypes keeps known service types, deduplicated.
func FilterServiceTypes(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !ValidServiceType(v) || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func ValidEmoji(emoji string) bool {
	return slices.Contains(reactionEmojis, emoji)
}
