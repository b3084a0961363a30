package models

type OptionKind string

const (
	OptionFurnitureType       OptionKind = "furniture_type"
	OptionSize                OptionKind = "size"
	OptionVehicleRequirements OptionKind = "vehicle_requirements"
	OptionTaskDetails         OptionKind = "task_details"
)

// Valid reports whether k is one of the known option kinds.
func (k OptionKind) Valid() bool {
	switch k {
	case OptionFurnitureType, OptionSize, OptionVehicleRequirements, OptionTaskDetails:
		return true
	}
	return false
}

// OptionStep is one control to set during the booking flow. Steps are
// applied in order because later controls only render after earlier ones.
type OptionStep struct {
	Kind  OptionKind `mapstructure:"kind"  yaml:"kind"`
	Value string     `mapstructure:"value" yaml:"value"`
}

type CategorySpec struct {
	Key         string       `mapstructure:"key"          yaml:"key"`
	Name        string       `mapstructure:"name"         yaml:"name"`
	URL         string       `mapstructure:"url"          yaml:"url"`
	SubmitLabel string       `mapstructure:"submit_label" yaml:"submit_label"`
	Options     []OptionStep `mapstructure:"options"      yaml:"options"`
}
