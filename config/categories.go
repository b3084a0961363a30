package config

import (
	"errors"
	"fmt"
	"strings"

	"taskrabbit-scraper/models"
)

// ErrUnknownCategory is returned by Registry.Lookup for unregistered keys.
var ErrUnknownCategory = errors.New("unknown category")

// DefaultSubmitLabel is the button that leaves the booking flow for the
// tasker listing.
const DefaultSubmitLabel = "See Taskers & Prices"

// CategoryConfig is the config-file shape of a category.
type CategoryConfig = models.CategorySpec

// Registry is the immutable set of categories a run can target.
type Registry struct {
	specs []models.CategorySpec
	index map[string]int
}

// NewRegistry validates specs and keeps them in the given order.
func NewRegistry(specs []models.CategorySpec) (*Registry, error) {
	r := &Registry{
		specs: make([]models.CategorySpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}

	for i, s := range specs {
		s.Key = strings.ToLower(strings.TrimSpace(s.Key))
		if s.Key == "" {
			return nil, fmt.Errorf("category %d: empty key", i)
		}
		if s.Key == "all" {
			return nil, fmt.Errorf("category %d: key %q is reserved", i, s.Key)
		}
		if _, dup := r.index[s.Key]; dup {
			return nil, fmt.Errorf("category %q: duplicate key", s.Key)
		}
		if strings.TrimSpace(s.URL) == "" {
			return nil, fmt.Errorf("category %q: empty url", s.Key)
		}
		if s.Name == "" {
			s.Name = s.Key
		}
		if s.SubmitLabel == "" {
			s.SubmitLabel = DefaultSubmitLabel
		}
		opts := make([]models.OptionStep, len(s.Options))
		for j, o := range s.Options {
			if !o.Kind.Valid() {
				return nil, fmt.Errorf("category %q option %d: unknown kind %q", s.Key, j, o.Kind)
			}
			opts[j] = o
		}
		s.Options = opts

		r.index[s.Key] = len(r.specs)
		r.specs = append(r.specs, s)
	}

	if len(r.specs) == 0 {
		return nil, errors.New("no categories registered")
	}
	return r, nil
}

// Lookup returns the category registered under key (case-insensitive).
func (r *Registry) Lookup(key string) (models.CategorySpec, error) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return models.CategorySpec{}, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}
	s := r.specs[i]
	s.Options = append([]models.OptionStep(nil), s.Options...)
	return s, nil
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.specs))
	for i, s := range r.specs {
		keys[i] = s.Key
	}
	return keys
}

// Registry builds the category registry for cfg: the config file's
// categories when present, the built-in set otherwise.
func (c *Config) Registry() (*Registry, error) {
	if len(c.Categories) > 0 {
		return NewRegistry(c.Categories)
	}
	return DefaultRegistry(), nil
}

func medium() models.OptionStep {
	return models.OptionStep{Kind: models.OptionSize, Value: "Medium - Est. 2-3 hrs"}
}

func details(v string) models.OptionStep {
	return models.OptionStep{Kind: models.OptionTaskDetails, Value: v}
}

func handyman(key, name, path, task string) models.CategorySpec {
	return models.CategorySpec{
		Key:     key,
		Name:    name,
		URL:     "https://www.taskrabbit.com/services/handyman/" + path,
		Options: []models.OptionStep{medium(), details(task)},
	}
}

var defaultCategories = []models.CategorySpec{
	{
		Key:         "furniture_assembly",
		Name:        "Furniture Assembly",
		URL:         "https://www.taskrabbit.com/services/handyman/assemble-furniture",
		SubmitLabel: "Continue",
		Options: []models.OptionStep{
			{Kind: models.OptionFurnitureType, Value: "Both IKEA and non-IKEA furniture"},
			medium(),
			details("build stool"),
		},
	},
	handyman("plumbing", "Plumbing", "plumbing", "fix leaky faucet"),
	handyman("electrical", "Electrical Help", "electrical-work", "install light fixture"),
	handyman("door_repair", "Door, Cabinet & Furniture Repair", "door-and-cabinet-repair", "fix cabinet door"),
	handyman("sealing_caulking", "Sealing and caulking", "sealing-caulking", "caulk bathroom tiles"),
	handyman("appliance_installation", "Appliance Installation", "appliance-repairs", "install dishwasher"),
	handyman("flooring_tiling", "Flooring & Tiling Help", "flooring-tiling-help", "install tile flooring"),
	handyman("wall_repair", "Wall Repair", "drywall-repair", "patch drywall hole"),
	handyman("window_blinds_repair", "Window & Blinds Repair", "window-repair", "fix window blinds"),
	{
		Key:  "smart_home",
		Name: "Smart Home Installation",
		URL:  "https://www.taskrabbit.com/services/handyman/smart-home-installation",
		Options: []models.OptionStep{
			medium(),
			{Kind: models.OptionVehicleRequirements, Value: "Not needed for task"},
			details("install smart thermostat"),
		},
	},
	handyman("interior_painting", "Interior Painting", "painting", "paint bedroom walls"),
}

// DefaultRegistry returns the built-in handyman categories.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultCategories)
	if err != nil {
		panic(err)
	}
	return r
}
