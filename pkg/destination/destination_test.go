package destination

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvansteenburgh/charm-tools/pkg/config"
)

type mapEnv map[string]string

func (m mapEnv) Lookup(key string) string { return m[key] }

func TestResolveSeries(t *testing.T) {
	tests := map[string]struct {
		item       string
		wantItem   string
		wantSeries string
		wantName   string
	}{
		"bare charm": {
			item:     "foo",
			wantItem: "cs:foo",
			wantName: "foo",
		},
		"prefixed charm": {
			item:     "cs:foo",
			wantItem: "cs:foo",
			wantName: "foo",
		},
		"series charm": {
			item:       "trusty/foo",
			wantItem:   "cs:trusty/foo",
			wantSeries: "trusty",
			wantName:   "foo",
		},
		"user charm": {
			item:     "~bob/foo",
			wantItem: "cs:~bob/foo",
			wantName: "foo",
		},
		"user series charm": {
			item:       "cs:~bob/trusty/foo",
			wantItem:   "cs:~bob/trusty/foo",
			wantSeries: "trusty",
			wantName:   "foo",
		},
		"too many segments": {
			item:     "cs:~bob/trusty/foo/extra",
			wantItem: "cs:~bob/trusty/foo/extra",
			wantName: "extra",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			base := t.TempDir()

			d, err := Resolve(tc.item, base, nil)
			require.NoError(t, err)

			assert.Equal(t, KindCharm, d.Kind)
			assert.Equal(t, tc.wantItem, d.Item)
			assert.Equal(t, tc.wantSeries, d.Series)
			assert.Equal(t, tc.wantName, d.Name)

			wantDir := base
			if tc.wantSeries != "" {
				wantDir = filepath.Join(base, tc.wantSeries)
				assert.DirExists(t, wantDir)
			}
			assert.Equal(t, wantDir, d.Dir)
			assert.Equal(t, filepath.Join(wantDir, tc.wantName), d.Path())
		})
	}
}

func TestResolveBareMatchesPrefixed(t *testing.T) {
	for _, item := range []string{"foo", "trusty/foo", "~bob/foo", "~bob/trusty/foo"} {
		t.Run(item, func(t *testing.T) {
			base := t.TempDir()

			bare, err := Resolve(item, base, nil)
			require.NoError(t, err)
			prefixed, err := Resolve(CharmPrefix+item, base, nil)
			require.NoError(t, err)

			assert.Equal(t, prefixed, bare)
		})
	}
}

func TestResolveDirectoryFallback(t *testing.T) {
	envDir := t.TempDir()
	argDir := t.TempDir()

	tests := map[string]struct {
		item    string
		dir     string
		env     mapEnv
		wantDir string
		cwd     bool
	}{
		"charm uses JUJU_REPOSITORY": {
			item:    "foo",
			env:     mapEnv{config.EnvJujuRepository: envDir},
			wantDir: envDir,
		},
		"layer uses LAYER_PATH": {
			item:    "layer:basic",
			env:     mapEnv{config.EnvLayerPath: envDir, config.EnvJujuRepository: argDir},
			wantDir: envDir,
		},
		"interface uses INTERFACE_PATH": {
			item:    "interface:mysql",
			env:     mapEnv{config.EnvInterfacePath: envDir, config.EnvLayerPath: argDir},
			wantDir: envDir,
		},
		"explicit dir wins over env": {
			item:    "foo",
			dir:     argDir,
			env:     mapEnv{config.EnvJujuRepository: envDir},
			wantDir: argDir,
		},
		"layer ignores JUJU_REPOSITORY": {
			item: "layer:basic",
			env:  mapEnv{config.EnvJujuRepository: envDir},
			cwd:  true,
		},
		"nothing set uses cwd": {
			item: "foo",
			env:  mapEnv{},
			cwd:  true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			want := tc.wantDir
			if tc.cwd {
				wd, err := os.Getwd()
				require.NoError(t, err)
				want = wd
			}

			d, err := Resolve(tc.item, tc.dir, tc.env)
			require.NoError(t, err)
			assert.Equal(t, want, d.Dir)
		})
	}
}

func TestResolveCwdCharmPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	d, err := Resolve("foo", "", mapEnv{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "foo"), d.Path())
}

func TestResolveLayerAndInterface(t *testing.T) {
	base := t.TempDir()

	d, err := Resolve("layer:basic", base, nil)
	require.NoError(t, err)
	assert.Equal(t, KindLayer, d.Kind)
	assert.Equal(t, "layer:basic", d.Item)
	assert.Equal(t, "basic", d.Name)
	assert.Equal(t, base, d.Dir)

	d, err = Resolve("interface:mysql", base, nil)
	require.NoError(t, err)
	assert.Equal(t, KindInterface, d.Kind)
	assert.Equal(t, "interface:mysql", d.Item)
	assert.Equal(t, "mysql", d.Name)
}

func TestResolveExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	d, err := Resolve("foo", "~/charms", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "charms"), d.Dir)
}

func TestResolveExistingSeriesDir(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "xenial"), 0o755))

	d, err := Resolve("xenial/foo", base, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "xenial"), d.Dir)
}

func TestResolveSeriesDirCreationFails(t *testing.T) {
	base := filepath.Join(t.TempDir(), "missing", "parent")

	_, err := Resolve("trusty/foo", base, nil)
	assert.Error(t, err)
}
