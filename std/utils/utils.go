package utils

// NDNPlay version from source control, set with -ldflags at build time.
var NDNPlayVersion string = "unknown"

// If is the ternary operator (eager evaluation)
func If[T any](cond bool, t, f T) T {
	if cond {
		return t
	} else {
		return f
	}
}
