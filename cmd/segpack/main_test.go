package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/insurgentsworkshop/segpack"
	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/flavor"
	"github.com/insurgentsworkshop/segpack/icondir"
	"github.com/insurgentsworkshop/segpack/internal/pool"
	"github.com/insurgentsworkshop/segpack/workdir"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--log-level", "warn"}, args...))
	err := cmd.Execute()

	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := run(t, args...)
	require.NoError(t, err, out)

	return out
}

func layout(t *testing.T, name string) *container.Layout {
	t.Helper()

	reg, err := segpack.DefaultRegistry()
	require.NoError(t, err)
	l, err := reg.Layout(name)
	require.NoError(t, err)

	return l
}

// writeEbp writes an ebp with a texture and a nested ard to path.
func writeEbp(t *testing.T, path string) []byte {
	t.Helper()

	ard, err := container.New(layout(t, flavor.Ard), 10)
	require.NoError(t, err)
	require.NoError(t, ard.SetPayload(0, []byte("ard head")))
	require.NoError(t, ard.SetPayload(1, []byte("ard tail")))

	ebp, err := container.New(layout(t, flavor.Ebp), 20)
	require.NoError(t, err)
	require.NoError(t, ebp.SetPayload(6, []byte("TIM2 pixels")))
	require.NoError(t, ebp.SetPayload(3, []byte("table")))
	require.NoError(t, ebp.SetNested(19, ard))

	return writeContainer(t, path, ebp)
}

func writeBattlePack(t *testing.T, path string) []byte {
	t.Helper()

	child, err := container.New(layout(t, flavor.Battlepack), 15)
	require.NoError(t, err)
	require.NoError(t, child.SetPayload(2, []byte("inner")))

	c, err := container.New(layout(t, flavor.BattlePack), 71)
	require.NoError(t, err)
	require.NoError(t, c.SetPayload(0, []byte("first")))
	require.NoError(t, c.SetPayload(70, []byte("last")))
	require.NoError(t, c.SetNested(61, child))

	return writeContainer(t, path, c)
}

func writeContainer(t *testing.T, path string, c *container.Container) []byte {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	_, err := segpack.WriteFile(path, c)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return data
}

func TestUnpackPack(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "d01.ebp")
	want := writeEbp(t, src)

	mustRun(t, "unpack", src)
	require.FileExists(t, filepath.Join(src+".dir", workdir.ManifestName))
	require.FileExists(t, filepath.Join(src+".dir", "section_006.tm2"))

	dst := filepath.Join(tmp, "out.ebp")
	mustRun(t, "pack", src+".dir", dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestUnpack_ExplicitLayout(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "stage.bin")
	writeEbp(t, src)

	_, err := run(t, "unpack", src)
	require.Error(t, err, "no rule matches a .bin outside the pack list")

	dir := filepath.Join(tmp, "custom")
	mustRun(t, "unpack", "--layout", flavor.Ebp, src, dir)
	require.DirExists(t, filepath.Join(dir, "section_019.dir"))
}

func TestInspect(t *testing.T) {
	src := filepath.Join(t.TempDir(), "d01.ebp")
	writeEbp(t, src)

	out := mustRun(t, "inspect", src)
	require.Contains(t, out, "ebp(")
	require.Contains(t, out, "19/0")
	require.Contains(t, out, "Nested")
	require.Contains(t, out, ".tm2")
}

func TestBundleUnbundle(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "d01.ebp")
	want := writeEbp(t, src)

	packed := filepath.Join(tmp, "d01.sgpb")
	mustRun(t, "bundle", "--compression", "s2", src, packed)

	dst := filepath.Join(tmp, "back.ebp")
	mustRun(t, "unbundle", packed, dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = run(t, "bundle", "--compression", "brotli", src, packed)
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "src")
	battle := filepath.Join(root, "ps2data", "battle", "battle_pack.bin")
	stage := filepath.Join(root, "ps2data", "stage", "d01.ebp")
	wantBattle := writeBattlePack(t, battle)
	wantStage := writeEbp(t, stage)
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("not a container"), 0o644))

	mustRun(t, "batch", "unpack", root)
	require.DirExists(t, battle+".dir")
	require.DirExists(t, filepath.Join(battle+".dir", "section_061.dir"))
	require.DirExists(t, stage+".dir")
	require.NoDirExists(t, filepath.Join(root, "readme.txt.dir"))

	dest := filepath.Join(t.TempDir(), "newpack")
	mustRun(t, "batch", "pack", "--jobs", "2", root, dest)

	got, err := os.ReadFile(filepath.Join(dest, "ps2data", "battle", "battle_pack.bin"))
	require.NoError(t, err)
	require.Equal(t, wantBattle, got)

	got, err = os.ReadFile(filepath.Join(dest, "ps2data", "stage", "d01.ebp"))
	require.NoError(t, err)
	require.Equal(t, wantStage, got)
}

func TestIcons(t *testing.T) {
	icon := func(x uint16) icondir.Icon {
		i, err := icondir.NewIcon(x, 8, 16, 16, 0, 1)
		require.NoError(t, err)
		return i
	}

	buf := pool.NewByteBuffer(256)
	_, err := buf.Write(append([]byte("TIM2"), make([]byte, icondir.Tim2ExtBase-4)...))
	require.NoError(t, err)

	_, err = icondir.Encode(buf, &icondir.Directory{
		Sections:   []icondir.Section{{Groups: []icondir.Group{{Icons: []icondir.Icon{icon(0), icon(16)}}}}},
		ClutGroups: make([]byte, 16),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "icons.tm2")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out := mustRun(t, "icons", path)
	require.Contains(t, out, "1 sections, 1 groups, 2 icons")
}

func TestRulesFlag(t *testing.T) {
	tmp := t.TempDir()
	rules := filepath.Join(tmp, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("rules:\n  - pattern: '\\.stg$'\n    layout: ebp\n"), 0o644))

	src := filepath.Join(tmp, "d01.stg")
	writeEbp(t, src)

	out := mustRun(t, "--rules", rules, "unpack", src)
	require.DirExists(t, src+".dir")
	require.NotContains(t, out, "unexpected section count")
}

func TestSectionCountWarning(t *testing.T) {
	tmp := t.TempDir()
	rules := filepath.Join(tmp, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("rules:\n  - pattern: '\\.stg$'\n    layout: ebp\n    sections: 19\n"), 0o644))

	src := filepath.Join(tmp, "d01.stg")
	writeEbp(t, src)

	out := mustRun(t, "--rules", rules, "unpack", src)
	require.Contains(t, out, "unexpected section count")

	out = mustRun(t, "--rules", rules, "pack", src+".dir", filepath.Join(tmp, "d02.stg"))
	require.Contains(t, out, "unexpected section count")
}

func TestLoggerFlags(t *testing.T) {
	_, err := run(t, "--log-format", "xml", "inspect", "x.ebp")
	require.Error(t, err)

	_, err = newLogger(&bytes.Buffer{}, "loud", "json")
	require.Error(t, err)

	out := &bytes.Buffer{}
	logger, err := newLogger(out, "info", "json")
	require.NoError(t, err)
	logger.Info().Str("layout", "ebp").Msg("unpacked")
	require.Contains(t, out.String(), `"layout":"ebp"`)
}
