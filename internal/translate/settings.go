package translate

import "time"

// ZoneConfig holds the left-stick classification thresholds.
type ZoneConfig struct {
	DeadZoneRadius float64 `json:"deadZoneRadius"`
	// DiagonalZoneSize is accepted for configuration compatibility but is
	// currently inert: Classify uses fixed octant angles and never reads it.
	DiagonalZoneSize float64 `json:"diagonalZoneSize"`
}

// Settings is everything the engine reads from configuration. The engine
// fetches a fresh value from its SettingsSource on every tick.
type Settings struct {
	Zone             ZoneConfig `json:"zone"`
	MouseSensitivity float64    `json:"mouseSensitivity"`
	ScrollSpeed      float64    `json:"scrollSpeed"`

	CtrlToggle  bool `json:"ctrlToggle"`
	ShiftToggle bool `json:"shiftToggle"`
	TabToggle   bool `json:"tabToggle"`

	ShiftReleasesCtrl bool `json:"shiftReleasesCtrl"`
	ShiftReleasesTab  bool `json:"shiftReleasesTab"`
	SpaceReleasesCtrl bool `json:"spaceReleasesCtrl"`

	ShiftAutoRelease  bool          `json:"shiftAutoRelease"`
	ShiftReleaseDelay time.Duration `json:"shiftReleaseDelay"`

	Debug bool `json:"debug"`
}

// SettingsSource is a read-through handle on live configuration.
type SettingsSource interface {
	Settings() Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings Settings

func (s StaticSettings) Settings() Settings {
	return Settings(s)
}

// DefaultSettings mirrors the shipped configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Zone: ZoneConfig{
			DeadZoneRadius:   0.25,
			DiagonalZoneSize: 0.7071,
		},
		MouseSensitivity:  10,
		ScrollSpeed:       0.0021,
		CtrlToggle:        true,
		ShiftToggle:       false,
		TabToggle:         true,
		ShiftReleaseDelay: 500 * time.Millisecond,
	}
}
