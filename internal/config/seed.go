package config

import (
	"fmt"
	"os"

	"quickbook/internal/models"

	"gopkg.in/yaml.v2"
)

// LoadSeedRooms reads the rooms seed file. A missing path yields no rooms.
func LoadSeedRooms(path string) ([]models.SeedRoom, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed rooms: %w", err)
	}

	var seed struct {
		Rooms []models.SeedRoom `yaml:"rooms"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed rooms: %w", err)
	}

	names := make(map[string]bool, len(seed.Rooms))
	for _, r := range seed.Rooms {
		if r.Name == "" {
			return nil, fmt.Errorf("seed room without name")
		}
		if names[r.Name] {
			return nil, fmt.Errorf("duplicate seed room name: %s", r.Name)
		}
		names[r.Name] = true
		if _, err := models.ParseRoomLocation(r.Location); err != nil {
			return nil, fmt.Errorf("seed room %s: %w", r.Name, err)
		}
		if r.Capacity < 1 {
			return nil, fmt.Errorf("seed room %s: capacity must be at least 1", r.Name)
		}
	}
	return seed.Rooms, nil
}
