package session

// Preset is a ready-made interview setup the API exposes so a candidate can
// start without assembling a config by hand.
type Preset struct {
	Name   string `json:"name"`
	Config Config `json:"config"`
}

// Presets returns the built-in interview setups.
func Presets() []Preset {
	return []Preset{
		{
			Name: "Backend Engineer",
			Config: Config{
				Role:            "Backend Engineer",
				Topics:          []string{"APIs", "databases", "system design"},
				Level:           LevelIntermediate,
				DurationMinutes: 15,
			},
		},
		{
			Name: "Frontend Engineer",
			Config: Config{
				Role:            "Frontend Engineer",
				Topics:          []string{"JavaScript", "React", "CSS"},
				Level:           LevelIntermediate,
				DurationMinutes: 15,
			},
		},
		{
			Name: "Data Scientist",
			Config: Config{
				Role:            "Data Scientist",
				Topics:          []string{"statistics", "machine learning", "Python"},
				Level:           LevelIntermediate,
				DurationMinutes: 20,
			},
		},
		{
			Name: "DevOps Engineer",
			Config: Config{
				Role:            "DevOps Engineer",
				Topics:          []string{"CI/CD", "Kubernetes", "monitoring"},
				Level:           LevelExperienced,
				DurationMinutes: 15,
			},
		},
		{
			Name: "New Graduate",
			Config: Config{
				Role:            "Software Engineer",
				Topics:          []string{"data structures", "algorithms", "projects"},
				Level:           LevelFresher,
				DurationMinutes: 10,
			},
		},
	}
}
