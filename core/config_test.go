package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalJSONConf = `{
  "problems": [
    {
      "id": 0,
      "name": "aplusb",
      "type": "standard",
      "cases": [
        {"score": 50, "input_file": "1.in", "answer_file": "1.ans", "time_limit": 1000000, "memory_limit": 1048576},
        {"score": 50, "input_file": "2.in", "answer_file": "2.ans", "time_limit": 1000000, "memory_limit": 1048576}
      ]
    }
  ],
  "languages": [
    {"name": "Rust", "file_name": "main.rs", "command": ["rustc", "-C", "opt-level=2", "%INPUT%", "-o", "%OUTPUT%"]}
  ]
}`

func TestLoadConfJSON(t *testing.T) {
	path := writeConfigFile(t, "conf.json", minimalJSONConf)

	conf, err := LoadConf(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", conf.Server.BindAddress)
	assert.Equal(t, 12345, conf.Server.BindPort)
	require.Len(t, conf.Problems, 1)
	assert.Equal(t, ProblemStandard, conf.Problems[0].Type)
	assert.Len(t, conf.Problems[0].Cases, 2)
	require.NotNil(t, conf.LanguageByName("Rust"))
	assert.Equal(t, "main.rs", conf.LanguageByName("Rust").FileName)
	assert.Nil(t, conf.LanguageByName("cobol"))
	require.NotNil(t, conf.ProblemByID(0))
	assert.Nil(t, conf.ProblemByID(99))
}

func TestLoadConfServerOverride(t *testing.T) {
	path := writeConfigFile(t, "conf.json", `{
  "server": {"bind_address": "0.0.0.0", "bind_port": 8080},
  "problems": [{"id": 3, "name": "p", "type": "strict", "cases": [{"score": 100, "input_file": "a.in", "answer_file": "a.ans", "time_limit": 500000, "memory_limit": 0}]}],
  "languages": [{"name": "sh", "file_name": "code.sh", "command": ["cp", "%INPUT%", "%OUTPUT%"]}]
}`)

	conf, err := LoadConf(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", conf.Server.BindAddress)
	assert.Equal(t, 8080, conf.Server.BindPort)
	assert.Equal(t, []int{3}, conf.ProblemIDs())
}

func TestLoadConfYAML(t *testing.T) {
	path := writeConfigFile(t, "conf.yaml", `
server:
  bind_port: 9000
problems:
  - id: 0
    name: echo
    type: standard
    misc:
      dynamic_ranking_ratio: 0.5
    cases:
      - score: 100
        input_file: 1.in
        answer_file: 1.ans
        time_limit: 1000000
        memory_limit: 1048576
languages:
  - name: sh
    file_name: code.sh
    command: ["cp", "%INPUT%", "%OUTPUT%"]
`)

	conf, err := LoadConf(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", conf.Server.BindAddress)
	assert.Equal(t, 9000, conf.Server.BindPort)
	assert.Equal(t, 0.5, conf.Problems[0].Misc.DynamicRankingRatio)
}

func TestLoadConfErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConf(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfigFile(t, "conf.json", `{"problems": [`)
		_, err := LoadConf(path)
		assert.Error(t, err)
	})

	t.Run("no problems", func(t *testing.T) {
		path := writeConfigFile(t, "conf.json", `{"problems": [], "languages": [{"name": "sh", "file_name": "s", "command": ["true"]}]}`)
		_, err := LoadConf(path)
		assert.ErrorContains(t, err, "no problems")
	})

	t.Run("duplicate problem id", func(t *testing.T) {
		path := writeConfigFile(t, "conf.json", `{
  "problems": [
    {"id": 1, "name": "a", "type": "standard", "cases": [{"score": 1, "input_file": "i", "answer_file": "a", "time_limit": 1, "memory_limit": 0}]},
    {"id": 1, "name": "b", "type": "standard", "cases": [{"score": 1, "input_file": "i", "answer_file": "a", "time_limit": 1, "memory_limit": 0}]}
  ],
  "languages": [{"name": "sh", "file_name": "s", "command": ["true"]}]
}`)
		_, err := LoadConf(path)
		assert.ErrorContains(t, err, "duplicate problem id")
	})

	t.Run("unknown problem type", func(t *testing.T) {
		path := writeConfigFile(t, "conf.json", `{
  "problems": [{"id": 0, "name": "a", "type": "fancy", "cases": [{"score": 1, "input_file": "i", "answer_file": "a", "time_limit": 1, "memory_limit": 0}]}],
  "languages": [{"name": "sh", "file_name": "s", "command": ["true"]}]
}`)
		_, err := LoadConf(path)
		assert.ErrorContains(t, err, "unknown type")
	})

	t.Run("empty language command", func(t *testing.T) {
		path := writeConfigFile(t, "conf.json", `{
  "problems": [{"id": 0, "name": "a", "type": "standard", "cases": [{"score": 1, "input_file": "i", "answer_file": "a", "time_limit": 1, "memory_limit": 0}]}],
  "languages": [{"name": "sh", "file_name": "s", "command": []}]
}`)
		_, err := LoadConf(path)
		assert.ErrorContains(t, err, "empty command")
	})
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("LOG_DIR", "")
	t.Setenv("JUDGE_DIR", "")
	t.Setenv("DIFF_PATH", "")

	s := LoadSettings()
	assert.Equal(t, "./log", s.LogDir)
	assert.Equal(t, "", s.JudgeDir)
	assert.Equal(t, "diff", s.DiffPath)

	t.Setenv("DIFF_PATH", "/usr/bin/diff")
	assert.Equal(t, "/usr/bin/diff", LoadSettings().DiffPath)
}
