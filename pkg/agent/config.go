package agent

// Config points to the data directory and the user-driven configuration
// files. Live reload only applies to the user-driven files; coolers.yml
// holds per-family policy overrides.
type Config struct {
	DataDir       string `json:"dataDir"`
	CoolersConfig string `json:"coolersConfig"`
}
