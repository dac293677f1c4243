package resources

import (
	"context"
	"fmt"
	"os"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/xshape/core"
	"github.com/npillmayer/xshape/core/font"
)

// NotFound returns an application error for a missing font.
func NotFound(res string) error {
	e := fmt.Errorf("resource missing: %v", res)
	return core.WrapError(e, core.EMISSING, "font not found: %s", res)
}

// systemFontLocator finds a font file by name. It is a variable to enable
// tests to run without relying on installed fonts.
var systemFontLocator = findfont.Find

type fontPlusErr struct {
	font *font.TypeCase
	err  error
}

// TypeCasePromise is a promise for a font loaded in the background.
// A promise delivers its result once.
type TypeCasePromise interface {
	TypeCase() (*font.TypeCase, error)
	Await(ctx context.Context) (*font.TypeCase, error)
}

type fontLoader struct {
	await func(ctx context.Context) (*font.TypeCase, error)
}

func (loader fontLoader) TypeCase() (*font.TypeCase, error) {
	return loader.await(context.Background())
}

func (loader fontLoader) Await(ctx context.Context) (*font.TypeCase, error) {
	return loader.await(ctx)
}

// ResolveTypeCase resolves a font type case with a given size.
//
// name is either a path to a font file or the name of a system font. A
// file path takes precedence. Fonts are stored in the global font registry,
// subsequent requests for the same name and size are answered from there.
func ResolveTypeCase(name string, size float64) TypeCasePromise {
	ch := make(chan fontPlusErr, 1)
	go func(ch chan<- fontPlusErr) {
		defer close(ch)
		result := fontPlusErr{}
		registry := font.GlobalRegistry()
		if t, err := registry.TypeCase(name, size); err == nil {
			result.font = t
			ch <- result
			return
		}
		var f *font.ScalableFont
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			tracer().Debugf("%s is a font file", name)
			f, result.err = font.LoadOpenTypeFont(name)
		} else {
			fpath, err := systemFontLocator(name) // try to find as system font
			if err != nil || fpath == "" {
				tracer().Infof("no system font %s: %v", name, err)
				result.err = NotFound(name)
			} else {
				tracer().Debugf("%s is a system font at %s", name, fpath)
				f, result.err = font.LoadOpenTypeFont(fpath)
			}
		}
		if f != nil && result.err == nil {
			f.Fontname = name
			registry.StoreFont(f)
			result.font, result.err = registry.TypeCase(name, size)
		}
		ch <- result
	}(ch)
	return fontLoader{
		await: func(ctx context.Context) (*font.TypeCase, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case r := <-ch:
				return r.font, r.err
			}
		},
	}
}
