package cli

import "xtr/internal/config"

// Flags holds command-line flags
type Flags struct {
	ProjectPath string
	ConfigFile  string
	LogLevel    string
	Processors  int
	NameFilter  string
	TestCases   bool
	FailFast    bool
	Session     bool
	SessionName string
	Explicit    bool
	Record      string
	Verbose     bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ProjectPath: f.ProjectPath,
		ConfigFile:  f.ConfigFile,
		LogLevel:    f.LogLevel,
		Processors:  f.Processors,
		Filter:      f.NameFilter,
		TestCases:   f.TestCases,
		FailFast:    f.FailFast,
		Session:     f.Session,
		SessionName: f.SessionName,
		Explicit:    f.Explicit,
		Record:      f.Record,
		Verbose:     f.Verbose,
	}
}
