package config

// LookupPreset returns the named preset. A missing name is not an error; the
// caller falls back to global defaults.
func LookupPreset(name string, g *GlobalConfig) (Preset, bool) {
	if name == "" || g == nil {
		return Preset{}, false
	}
	p, ok := g.Presets[name]
	return p, ok
}

// ActivePreset returns the preset name in effect: the command-line selection
// wins over the one linked in the local config.
func ActivePreset(opts Options, local *LocalConfig) string {
	if opts.Preset != "" {
		return opts.Preset
	}
	if local != nil && local.Preset != nil {
		return *local.Preset
	}
	return ""
}
