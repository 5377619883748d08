package assets

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const aliasPluginName = "pagebundle-alias"

// aliasPlugin rewrites imports of each alias token, and of paths below it, to
// the absolute alias target and lets esbuild resolve the result so the
// configured extension order still applies. A token ending in "$" only
// matches the exact import path.
func aliasPlugin(alias map[string]string) api.Plugin {
	// longest tokens first so "@/components" wins over "@"
	tokens := slices.SortedFunc(maps.Keys(alias), func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})

	return api.Plugin{
		Name: aliasPluginName,
		Setup: func(build api.PluginBuild) {
			for _, token := range tokens {
				target := alias[token]
				name, exact := strings.CutSuffix(token, "$")

				filter := "^" + regexp.QuoteMeta(name) + "(/.*)?$"
				if exact {
					filter = "^" + regexp.QuoteMeta(name) + "$"
				}

				build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					rest := strings.TrimPrefix(args.Path, name)

					result := build.Resolve(target+rest, api.ResolveOptions{
						PluginName: aliasPluginName,
						Importer:   args.Importer,
						Namespace:  args.Namespace,
						ResolveDir: args.ResolveDir,
						Kind:       args.Kind,
						PluginData: args.PluginData,
					})
					if len(result.Errors) > 0 {
						return api.OnResolveResult{Errors: result.Errors}, nil
					}

					return api.OnResolveResult{
						Path:      result.Path,
						External:  result.External,
						Namespace: result.Namespace,
						Suffix:    result.Suffix,
					}, nil
				})
			}
		},
	}
}
