package assets

import (
	"errors"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrSingleFileComponent is reported for .vue imports. Compiling them needs a
// Vue compiler, which esbuild does not ship.
var ErrSingleFileComponent = errors.New("vue single-file components are not supported, import compiled modules instead")

// vueComponentPlugin fails the build with ErrSingleFileComponent when a .vue
// file is loaded, instead of esbuild's generic missing loader error.
func vueComponentPlugin() api.Plugin {
	return api.Plugin{
		Name: "pagebundle-vue",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.vue$`}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				return api.OnLoadResult{}, fmt.Errorf("%s: %w", args.Path, ErrSingleFileComponent)
			})
		},
	}
}
