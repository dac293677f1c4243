package font

import (
	"fmt"
	"strings"
	"sync"

	"github.com/npillmayer/xshape/core"
)

// Registry caches fonts by normalized name, together with the typecases
// prepared from them.
type Registry struct {
	sync.Mutex
	fonts     map[string]*ScalableFont
	typecases map[string]*TypeCase
}

var globalFontRegistry *Registry

var globalRegistryCreation sync.Once

// GlobalRegistry returns the application-wide font registry.
func GlobalRegistry() *Registry {
	globalRegistryCreation.Do(func() {
		globalFontRegistry = NewRegistry()
	})
	return globalFontRegistry
}

// NewRegistry creates an empty font registry.
func NewRegistry() *Registry {
	fr := &Registry{
		fonts:     make(map[string]*ScalableFont),
		typecases: make(map[string]*TypeCase),
	}
	return fr
}

// StoreFont puts a font into the registry, replacing a font of the same name.
func (fr *Registry) StoreFont(f *ScalableFont) {
	if f == nil {
		tracer().Errorf("registry cannot store null font")
		return
	}
	fr.Lock()
	defer fr.Unlock()
	fname := NormalizeFontname(f.Fontname)
	tracer().Debugf("registry stores font %s as %s", f.Fontname, fname)
	fr.fonts[fname] = f
}

// TypeCase returns a typecase for a registered font at a given size.
// Typecases are created on first request and cached afterwards.
//
// If no font of that name has been stored, TypeCase returns an error with
// code core.EMISSING.
func (fr *Registry) TypeCase(name string, size float64) (*TypeCase, error) {
	tracer().Debugf("registry searches for font %s at %.2f", name, size)
	fname := NormalizeFontname(name)
	tname := NormalizeTypeCaseName(name, size)
	fr.Lock()
	defer fr.Unlock()
	if t, ok := fr.typecases[tname]; ok {
		tracer().Debugf("registry found font %s", tname)
		return t, nil
	}
	f, ok := fr.fonts[fname]
	if !ok {
		tracer().Infof("registry does not contain font %s", name)
		return nil, core.Error(core.EMISSING, "font %s not found in registry", name)
	}
	t, err := f.PrepareCase(size)
	if err != nil {
		return nil, err
	}
	tracer().Infof("font registry has font %s, caches at %.2f", fname, size)
	fr.typecases[tname] = t
	return t, nil
}

// NormalizeFontname returns a lower-case name without spaces and without
// a file extension.
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ToLower(fname)
	return fname
}

// NormalizeTypeCaseName returns a registry key for a font at a given size.
func NormalizeTypeCaseName(fname string, size float64) string {
	fname = NormalizeFontname(fname)
	fname = fmt.Sprintf("%s-%.2f", fname, size)
	return fname
}
