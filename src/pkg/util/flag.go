package util

import (
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// Exit code used for every command line problem (missing or malformed parameters).
const UsageExitCode = 2

/*
RequiredFlags collects flags that must be non-empty after parsing.

Keep one per flag set; the zero value is ready to use.
*/
type RequiredFlags struct {
	names []string
	ptrs  []*string
}

// Add(senderPtr, "--sender"), can also use -sender and sender
func (r *RequiredFlags) Add(flagPointer *string, cliName string) {
	r.names = append(r.names, normalizeFlagName(cliName))
	r.ptrs = append(r.ptrs, flagPointer)
}

func normalizeFlagName(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "--") {
		return s
	}
	if strings.HasPrefix(s, "-") {
		// single dash → double dash
		return "-" + s
	}
	return "--" + s
}

// Missing returns names of required flags left empty, in registration order.
func (r *RequiredFlags) Missing() (missing []string) {
	for i, flagPointer := range r.ptrs {
		if flagPointer == nil || strings.TrimSpace(*flagPointer) == "" {
			missing = append(missing, r.names[i])
		}
	}
	return missing
}

// Ensure logs every missing required flag and exits(2) if any were missing.
func (r *RequiredFlags) Ensure(usage func()) {
	missing := r.Missing()
	for _, cliName := range missing {
		tl.Log(tl.Warning, palette.YellowBold, "%s parameter is %s", cliName, "required")
	}
	if len(missing) > 0 {
		if usage != nil {
			usage()
		}
		os.Exit(UsageExitCode)
	}
}
