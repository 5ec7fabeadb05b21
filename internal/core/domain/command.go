package domain

// Command is an external process invocation.
type Command struct {
	// Name labels the command in logs and spans.
	Name string
	// Args holds the executable followed by its arguments.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds KEY=VALUE overrides applied on top of the allow-listed host environment.
	Env []string
}
