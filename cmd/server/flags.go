package main

import (
	"strings"

	"github.com/spf13/pflag"
)

// normalizeFlagNames lets --no_migrate and --no-migrate mean the same flag.
func normalizeFlagNames(flags *pflag.FlagSet) {
	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return normalize(f, strings.ReplaceAll(name, "_", "-"))
	})
}
