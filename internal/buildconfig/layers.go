package buildconfig

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"dario.cat/mergo"
	"github.com/rs/zerolog/log"
)

// LoadLayers loads the base descriptor at paths[0] and merges each following
// layer over it, later layers taking precedence. Missing layers after the
// base are skipped.
func LoadLayers(paths []string, opts LoadOptions) (RawConfig, error) {
	if len(paths) == 0 {
		return RawConfig{}, errors.New("no config files provided")
	}

	var merged RawConfig
	for i, path := range paths {
		layer, err := LoadFile(path, opts)
		if err != nil {
			if i > 0 && errors.Is(err, os.ErrNotExist) {
				log.Debug().Str("path", path).Msg("skipping missing config layer")
				continue
			}
			return RawConfig{}, err
		}

		if err := MergeRaw(&merged, layer); err != nil {
			return RawConfig{}, fmt.Errorf("failed to merge config layer %s: %w", path, err)
		}

		log.Debug().Str("path", path).Int("layer", i).Msg("loaded config layer")
	}

	return merged, nil
}

// MergeRaw merges layer into dst. Set values in layer override dst, pages and
// aliases are merged by key, and a non-empty extensions list replaces the
// existing one. A page present in both is merged field by field, so a layer
// may override a single page option.
func MergeRaw(dst *RawConfig, layer RawConfig) error {
	pages := layer.Pages
	layer.Pages = nil

	if err := mergo.Merge(dst, layer, mergo.WithOverride, mergo.WithTransformers(boolPtrTransformer{})); err != nil {
		return err
	}

	if len(pages) > 0 && dst.Pages == nil {
		dst.Pages = make(map[string]RawPage, len(pages))
	}
	for name, page := range pages {
		merged := dst.Pages[name]
		if err := mergo.Merge(&merged, page, mergo.WithOverride); err != nil {
			return fmt.Errorf("failed to merge page %s: %w", name, err)
		}
		dst.Pages[name] = merged
	}

	return nil
}

// boolPtrTransformer lets an explicit false in a later layer override an
// earlier true, which plain mergo treats as an empty value.
type boolPtrTransformer struct{}

func (boolPtrTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ != reflect.TypeOf((*bool)(nil)) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			v := src.Elem().Bool()
			dst.Set(reflect.ValueOf(&v))
		}
		return nil
	}
}
