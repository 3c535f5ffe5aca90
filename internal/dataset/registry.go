package dataset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("dataset not found")

// Descriptor is a static record describing one queryable dataset on the
// Omni side. Descriptors are immutable after registry construction.
type Descriptor struct {
	Name           string   `yaml:"name"`
	Topic          string   `yaml:"topic"`
	ModelID        string   `yaml:"model_id"`
	Description    string   `yaml:"description"`
	ExamplePrompts []string `yaml:"example_prompts"`
}

type Registry struct {
	ordered []Descriptor
	byName  map[string]Descriptor
}

func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("at least one dataset is required")
	}
	registry := &Registry{
		ordered: make([]Descriptor, 0, len(descriptors)),
		byName:  make(map[string]Descriptor, len(descriptors)),
	}
	for _, descriptor := range descriptors {
		if descriptor.Name == "" {
			return nil, fmt.Errorf("dataset name is required")
		}
		if descriptor.Topic == "" || descriptor.ModelID == "" {
			return nil, fmt.Errorf("dataset %q: topic and model_id are required", descriptor.Name)
		}
		if _, exists := registry.byName[descriptor.Name]; exists {
			return nil, fmt.Errorf("duplicate dataset name %q", descriptor.Name)
		}
		registry.ordered = append(registry.ordered, descriptor)
		registry.byName[descriptor.Name] = descriptor
	}
	return registry, nil
}

// LoadRegistry builds the registry from a YAML file, or from the built-in
// descriptors when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(Defaults())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset registry file: %w", err)
	}
	var parsed struct {
		Datasets []Descriptor `yaml:"datasets"`
	}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse dataset registry file: %w", err)
	}
	registry, err := NewRegistry(parsed.Datasets)
	if err != nil {
		return nil, fmt.Errorf("dataset registry file %s: %w", path, err)
	}
	return registry, nil
}

func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Get(name string) (Descriptor, error) {
	descriptor, ok := r.byName[name]
	if !ok {
		return Descriptor{}, ErrNotFound
	}
	return descriptor, nil
}

// Default returns the first registered dataset, used as the initial
// selection for new sessions.
func (r *Registry) Default() Descriptor {
	return r.ordered[0]
}

func Defaults() []Descriptor {
	return []Descriptor{
		{
			Name:        "eCommerce Store Sales",
			Topic:       "orders_ai",
			ModelID:     "8b776a55-748b-455c-a9fc-d54791301e95",
			Description: "Ask questions about sales, orders, and revenue",
			ExamplePrompts: []string{
				"Show me total revenue by month",
				"What are the top 10 products by sales?",
				"How many users signed up this month?",
				"Which state has the most orders?",
				"Show me all our open orders",
				"Top users",
				"Highest margin products",
				"Lowest margin products",
				"Worst selling products past 30 days",
				"Best selling products past 30 days",
				"Total orders on the east coast by state",
				"Total orders on the west coast by state",
				"What is the meaning of life?",
				"Performance by channel",
			},
		},
		{
			Name:        "World Happiness Data",
			Topic:       "world_happiness_data",
			ModelID:     "4132be68-3537-4089-9ae4-bbbaec65cc30",
			Description: "Explore measures of world happiness",
			ExamplePrompts: []string{
				"What is the happiest country?",
				"What country has the highest crime rate?",
				"Show countries by population and GDP",
				"How has happiness trended in the US over time?",
				"Show countries by happiness score",
				"Which country has the best work life balance?",
				"Which country has the worst work life balance?",
				"What is the meaning of life?",
			},
		},
		{
			Name:        "Consumer Complaints",
			Topic:       "consumer_complaints",
			ModelID:     "713b9178-fd14-4e1d-be56-fdbf8f57b33c",
			Description: "Analyze customer demographics and behavior",
			ExamplePrompts: []string{
				"How many complaints have there been?",
				"Show me complaints by product",
				"Which company has the most complaints?",
				"Which company is the fastest to resolve complaints?",
				"How many complaints against equifax by year?",
				"Which state complains the most?",
			},
		},
	}
}
