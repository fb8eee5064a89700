package config

// SetPaths injects module file paths for tests without going through CLI flags
func (m *Modules) SetPaths(paths []string) {
	m.paths = paths
}
