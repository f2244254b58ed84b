package detect

import (
	"strings"
	"unicode"
)

// Labels the detection sources are known to emit. The door finder only ever
// produces LabelEntrance. The backend emits the COCO subset plus the
// segmentation prompts (road, sidewalk, building, ...).
const (
	LabelEntrance     = "Entrance"
	LabelPerson       = "Person"
	LabelBicycle      = "Bicycle"
	LabelCar          = "Car"
	LabelMotorcycle   = "Motorcycle"
	LabelBus          = "Bus"
	LabelTruck        = "Truck"
	LabelBoat         = "Boat"
	LabelTrafficLight = "Traffic light"
	LabelFireHydrant  = "Fire hydrant"
	LabelStopSign     = "Stop sign"
	LabelBench        = "Bench"
	LabelDoor         = "Door"
	LabelRoad         = "Road"
	LabelSidewalk     = "Sidewalk"
	LabelBuilding     = "Building"
	LabelSign         = "Sign"
	LabelVegetation   = "Vegetation"
	LabelTree         = "Tree"
	LabelPottedPlant  = "Potted plant"
	LabelChair        = "Chair"
	LabelWindow       = "Window"
)

// DefaultAccentColor is the documented default for any label that is not in
// the palette. Unknown labels are expected (the backend's vocabulary can grow
// ahead of ours), so this is a normal path, not an error.
const DefaultAccentColor = "#818cf8"

// labelColors is a closed mapping keyed by canonical labels, rather than an
// open string-keyed table, so a misspelled category falls through to the
// default accent instead of silently minting a new color.
var labelColors = map[string]string{
	LabelEntrance:     "#f97316",
	LabelDoor:         "#fb923c",
	LabelPerson:       "#ef4444",
	LabelBicycle:      "#22d3ee",
	LabelCar:          "#3b82f6",
	LabelMotorcycle:   "#38bdf8",
	LabelBus:          "#6366f1",
	LabelTruck:        "#2563eb",
	LabelBoat:         "#0ea5e9",
	LabelTrafficLight: "#facc15",
	LabelFireHydrant:  "#dc2626",
	LabelStopSign:     "#b91c1c",
	LabelBench:        "#a78bfa",
	LabelRoad:         "#64748b",
	LabelSidewalk:     "#94a3b8",
	LabelBuilding:     "#f59e0b",
	LabelSign:         "#eab308",
	LabelVegetation:   "#22c55e",
	LabelTree:         "#16a34a",
	LabelPottedPlant:  "#4ade80",
	LabelChair:        "#c084fc",
	LabelWindow:       "#2dd4bf",
}

// NormalizeLabel returns the canonical label form: first rune upper, the rest
// lower. Detection sources disagree on casing ("car", "CAR", "Car"), and the
// palette is keyed on the canonical form only.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	runes := []rune(strings.ToLower(label))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ColorForLabel returns the palette color for a label (case-insensitive),
// or DefaultAccentColor if the label is not in the palette.
func ColorForLabel(label string) string {
	if c, ok := labelColors[NormalizeLabel(label)]; ok {
		return c
	}
	return DefaultAccentColor
}
