package session

// DefaultPresets are the built-in lighting arrangements for the stock
// two-channel rig. Config presets replace these wholesale when present.
func DefaultPresets() map[string]map[string]int {
	return map[string]map[string]int{
		"uniform":   {"led_1": 200, "led_2": 200},
		"bright":    {"led_1": 255, "led_2": 255},
		"soft":      {"led_1": 100, "led_2": 100},
		"key-left":  {"led_1": 255, "led_2": 80},
		"key-right": {"led_1": 80, "led_2": 255},
	}
}
