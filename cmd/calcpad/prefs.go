package main

import (
	"sync"

	"calcpad/internal/config"
)

// savePrefs returns the keypad's preference writer. Each save works on its own
// copy of base, and saves are serialized so two toggles never interleave their
// writes to the config file.
func savePrefs(base config.Config) func(showHelp bool) error {
	var mu sync.Mutex
	return func(showHelp bool) error {
		mu.Lock()
		defer mu.Unlock()
		c := base
		c.UI.ShowHelp = showHelp
		return config.Save(c)
	}
}
