// Package flagx lets several loaders share one command line by extracting
// only the flags each of them understands.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps the arguments in args that belong to one of the allowed
// flags, in their original order.
//
// Both "-f value" and "-f=value" forms are recognized. In the separate form
// the next argument is taken as the value unless it starts with a dash.
// The result is never nil.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, hasValue := strings.Cut(arg, "="); hasValue && strings.HasPrefix(arg, "-") {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}
		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			out = append(out, args[next])
			i = next
		}
	}
	return out
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or "" when neither is present. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (shorthand)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
