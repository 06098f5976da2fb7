package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags defines one flag per setting, with the built-in defaults
// shown in help.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("server", d.Server, "Execution server base URL")
	fs.Duration("request-timeout", d.RequestTimeout, "Per-request timeout")
	fs.String("storage", d.Storage, "Project storage (remote|local)")
	fs.String("project-dir", d.ProjectDir, "Project directory for local storage")
	fs.Bool("seed-projects", d.SeedProjects, "Write sample scripts into an empty local project")
	fs.Int("max-visible-lines", d.MaxVisibleLines, "Terminal lines kept on screen")
	fs.Duration("fade", d.Fade, "Fade-out time before an expired line is removed")
	fs.Duration("frame-interval", d.FrameInterval, "UI frame interval")
	fs.String("history-path", d.HistoryPath, "Command history database")
	fs.Int("history-limit", d.HistoryLimit, "Commands kept in history (0 disables)")
	fs.String("log-path", d.LogPath, `Log file ("-" disables logging)`)
	fs.String("log-level", d.LogLevel, "Log level (debug|info|warn|error)")
	fs.Bool("alt-screen", d.AltScreen, "Use alternate screen buffer")
}

// ApplyFlags copies flags that were set explicitly, then re-normalizes.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !fs.Changed(name) {
			return
		}
		err = apply()
	}
	set("server", func() (e error) { c.Server, e = fs.GetString("server"); return })
	set("request-timeout", func() (e error) { c.RequestTimeout, e = fs.GetDuration("request-timeout"); return })
	set("storage", func() (e error) { c.Storage, e = fs.GetString("storage"); return })
	set("project-dir", func() (e error) { c.ProjectDir, e = fs.GetString("project-dir"); return })
	set("seed-projects", func() (e error) { c.SeedProjects, e = fs.GetBool("seed-projects"); return })
	set("max-visible-lines", func() (e error) { c.MaxVisibleLines, e = fs.GetInt("max-visible-lines"); return })
	set("fade", func() (e error) { c.Fade, e = fs.GetDuration("fade"); return })
	set("frame-interval", func() (e error) { c.FrameInterval, e = fs.GetDuration("frame-interval"); return })
	set("history-path", func() (e error) { c.HistoryPath, e = fs.GetString("history-path"); return })
	set("history-limit", func() (e error) { c.HistoryLimit, e = fs.GetInt("history-limit"); return })
	set("log-path", func() (e error) { c.LogPath, e = fs.GetString("log-path"); return })
	set("log-level", func() (e error) { c.LogLevel, e = fs.GetString("log-level"); return })
	set("alt-screen", func() (e error) { c.AltScreen, e = fs.GetBool("alt-screen"); return })
	if err != nil {
		return err
	}
	c.Normalize()
	return nil
}
