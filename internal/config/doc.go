// Package config parses the cachenode process's command-line flags into a
// validated Config, in the manner of a flag.StringVar/flag.IntVar based
// main, including custom flag.Value types for the repeatable --followers
// and --peers flags.
package config
