package resources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xshape/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestResolveFontFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.resources")
	defer teardown()
	tracer().SetTraceLevel(tracing.LevelDebug)
	//
	path := filepath.Join(t.TempDir(), "Go-Regular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))
	tc, err := ResolveTypeCase(path, 36).TypeCase()
	require.NoError(t, err)
	require.NotNil(t, tc)
	assert.Equal(t, 36.0, tc.PtSize())
	//
	again, err := ResolveTypeCase(path, 36).TypeCase()
	require.NoError(t, err)
	assert.Same(t, tc, again, "expected typecase to be cached in registry")
}

func TestResolveSystemFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xshape.resources")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "installed.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))
	defer func(loc func(string) (string, error)) { systemFontLocator = loc }(systemFontLocator)
	systemFontLocator = func(name string) (string, error) {
		if name == "Installed Sans" {
			return path, nil
		}
		return "", errors.New("no such font")
	}
	tc, err := ResolveTypeCase("Installed Sans", 20).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Installed Sans", tc.ScalableFontParent().Fontname)
	//
	_, err = ResolveTypeCase("No Such Font", 20).TypeCase()
	require.Error(t, err)
	assert.Equal(t, core.EMISSING, core.Code(err))
}
