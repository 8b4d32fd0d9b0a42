package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stringtable-translator/internal/config"
	"stringtable-translator/internal/filewalker"
	"stringtable-translator/internal/pipeline"
	"stringtable-translator/internal/stringtable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trinketTable = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <language id="english">
    <entry id="str_inventory_title_trinket">Trinket</entry>
  </language>
  <language id="schinese">
    <entry id="str_inventory_title_trinket">Trinket</entry>
    <entry id="str_inventory_description_trinket">{colour_start|notable}+10% DMG{colour_end}</entry>
    <entry id="str_spacer"></entry>
  </language>
</root>`

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, q, _, _ string) (string, error) {
	if v, ok := m[q]; ok {
		return v, nil
	}
	return "", errors.New("54001")
}

func writeTable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(trinketTable), 0644))
	return path
}

func testConfig() *config.Config {
	return &config.Config{
		SourceLang:  "en",
		TargetLang:  "zh",
		LanguageID:  "schinese",
		FailureText: config.DefaultFailureText,
	}
}

func TestDecide(t *testing.T) {
	assert.Equal(t, pipeline.Decision{Action: pipeline.Auto}, decide(""))
	assert.Equal(t, pipeline.Decision{Action: pipeline.Keep}, decide("+"))
	assert.Equal(t, pipeline.Decision{Action: pipeline.Override, Text: "饰品"}, decide("饰品"))
}

func TestPromptReviewer(t *testing.T) {
	doc, err := stringtable.New(strings.NewReader(trinketTable), "")
	require.NoError(t, err)
	ok, err := doc.NewEntry(0, "饰品")
	require.NoError(t, err)
	failed, err := doc.NewFailedEntry(1, config.DefaultFailureText)
	require.NoError(t, err)

	var out bytes.Buffer
	answers := []string{"", ""}
	r := newPromptReviewer(&out)
	r.prompt = func(string) (string, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}

	d, err := r.Review(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Auto, d.Action)

	d, err = r.Review(context.Background(), failed)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Keep, d.Action, "accepting a failure notice keeps the original")

	assert.Contains(t, out.String(), "str_inventory_title_trinket")
	assert.Contains(t, out.String(), "饰品")
	assert.Contains(t, out.String(), config.DefaultFailureText)
}

func TestPromptReviewerError(t *testing.T) {
	doc, err := stringtable.New(strings.NewReader(trinketTable), "")
	require.NoError(t, err)
	e, err := doc.NewEntry(0, "饰品")
	require.NoError(t, err)

	r := newPromptReviewer(&bytes.Buffer{})
	r.prompt = func(string) (string, error) { return "", errors.New("^C") }

	_, err = r.Review(context.Background(), e)
	assert.ErrorContains(t, err, "prompt")
}

func TestReviewerFor(t *testing.T) {
	for _, mode := range []string{"review", "auto", "keep"} {
		r, err := reviewerFor(mode)
		require.NoError(t, err)
		assert.NotNil(t, r)
	}
	_, err := reviewerFor("yolo")
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "toy_trinket.string_table.xml")

	fe := filewalker.FileEntry{Path: in, Rel: "toy_trinket.string_table.xml"}
	assert.Equal(t, "out.xml", outputPath(in, "out.xml", fe))
	assert.Equal(t, filepath.Join("out", "toy_trinket.string_table.xml"), outputPath(in, "out", fe))

	fe = filewalker.FileEntry{Path: in, Rel: filepath.Join("loc", "a.string_table.xml")}
	assert.Equal(t, filepath.Join("out.xml", "loc", "a.string_table.xml"), outputPath(dir, "out.xml", fe))
}

func TestTranslateFileAuto(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "toy_trinket.string_table.xml")
	out := filepath.Join(dir, "out", "a.xml")

	tr := mapTranslator{
		"Trinket":            "饰品",
		" 010 +10% DMG 010 ": " 010 +10% 伤害 010 ",
	}

	sum, err := translateFile(context.Background(), in, out, testConfig(), tr, pipeline.AutoReviewer, true)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Summary{Auto: 2}, sum)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `<entry id="str_inventory_title_trinket"><![CDATA[饰品]]></entry>`)
	assert.Contains(t, s, `<entry id="str_inventory_description_trinket"><![CDATA[ {colour_start|notable} +10% 伤害 {colour_end} ]]></entry>`)
	assert.Contains(t, s, `<entry id="str_spacer"></entry>`)
	// The English section is left alone.
	assert.Contains(t, s, `<entry id="str_inventory_title_trinket">Trinket</entry>`)
}

func TestTranslateFileFailuresKeepOriginal(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "toy_trinket.string_table.xml")
	out := filepath.Join(dir, "a.xml")

	sum, err := translateFile(context.Background(), in, out, testConfig(), mapTranslator{}, pipeline.AutoReviewer, false)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Summary{Kept: 2, Failed: 2}, sum)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), config.DefaultFailureText)
	assert.Contains(t, string(data), `<![CDATA[{colour_start|notable}+10% DMG{colour_end}]]>`)
}

func TestTranslateFileReviewErrorLeavesOutputUnwritten(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "toy_trinket.string_table.xml")
	out := filepath.Join(dir, "a.xml")

	stop := pipeline.ReviewerFunc(func(context.Context, *stringtable.Entry) (pipeline.Decision, error) {
		return pipeline.Decision{}, errors.New("interrupted")
	})

	_, err := translateFile(context.Background(), in, out, testConfig(), mapTranslator{"Trinket": "饰品"}, stop, true)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunTranslateKeepMode(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, filepath.Join(dir, "in"), filepath.Join("loc", "toy_trinket.string_table.xml"))
	outDir := filepath.Join(dir, "out")

	opts := &translateOptions{output: outDir, mode: "keep"}
	require.NoError(t, runTranslate(filepath.Join(dir, "in"), testConfig(), opts))

	data, err := os.ReadFile(filepath.Join(outDir, "loc", "toy_trinket.string_table.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<entry id="str_inventory_title_trinket"><![CDATA[Trinket]]></entry>`)
}

func TestRunTranslateRequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	in := writeTable(t, dir, "toy_trinket.string_table.xml")

	opts := &translateOptions{output: filepath.Join(dir, "out"), mode: "auto"}
	err := runTranslate(in, testConfig(), opts)
	assert.ErrorContains(t, err, "BAIDU_APP_ID")
}

func TestRunTranslateMemoryRequiresDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.BaiduAppID, cfg.BaiduSecretKey = "id", "key"

	_, _, err := newTranslator(context.Background(), cfg, true)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestRunInspect(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "toy_trinket.string_table.xml")
	require.NoError(t, runInspect(dir, "schinese"))
}

func TestRootCommandFlags(t *testing.T) {
	root := NewRootCmd()
	cmd, _, err := root.Find([]string{"translate"})
	require.NoError(t, err)
	assert.Equal(t, "translate", cmd.Name())

	require.NoError(t, cmd.Flags().Set("language", "russian"))
	require.NoError(t, cmd.Flags().Set("delay", "0s"))
	require.NoError(t, cmd.Flags().Set("from", "fr"))

	cfg := testConfig()
	cfg.TargetLang = "zh"
	opts := &translateOptions{language: "russian", from: "fr"}
	applyFlags(cmd, cfg, opts)

	assert.Equal(t, "russian", cfg.LanguageID)
	assert.Equal(t, "fr", cfg.SourceLang)
	assert.Equal(t, "zh", cfg.TargetLang)
	assert.Zero(t, cfg.RequestDelay)
}
