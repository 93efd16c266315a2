// ABOUTME: User settings persistence
// ABOUTME: Missing or partial settings are filled from defaults on load
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/offertrack/models"
)

type SettingsStore struct {
	kv KV
}

func NewSettingsStore(kv KV) *SettingsStore {
	return &SettingsStore{kv: kv}
}

func (s *SettingsStore) Load() (models.UserSettings, error) {
	settings := models.DefaultUserSettings()

	data, err := s.kv.Get([]byte(SettingsKey))
	if errors.Is(err, ErrNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return models.DefaultUserSettings(), fmt.Errorf("failed to decode settings: %w", err)
	}

	defaults := models.DefaultUserSettings()
	if len(settings.Streak.Workdays) == 0 {
		settings.Streak.Workdays = defaults.Streak.Workdays
	}
	if settings.Streak.DaysPerPreservationToken <= 0 {
		settings.Streak.DaysPerPreservationToken = defaults.Streak.DaysPerPreservationToken
	}
	return settings, nil
}

func (s *SettingsStore) Save(settings models.UserSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set([]byte(SettingsKey), data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
