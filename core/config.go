package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds runtime knobs for the API process, separate from the
// problem/language configuration file.
type Settings struct {
	LogDir   string // Directory to write application logs
	JudgeDir string // Base directory for per-submission workspaces ("" = system temp)
	DiffPath string // Path of the external diff utility
}

// LoadSettings populates Settings from environment variables with sane defaults.
func LoadSettings() Settings {
	return Settings{
		LogDir:   firstNonEmpty(os.Getenv("LOG_DIR"), "./log"),
		JudgeDir: os.Getenv("JUDGE_DIR"),
		DiffPath: firstNonEmpty(os.Getenv("DIFF_PATH"), "diff"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ProblemType selects how a submission's output is evaluated.
type ProblemType string

const (
	ProblemStandard       ProblemType = "standard"
	ProblemStrict         ProblemType = "strict"
	ProblemSpj            ProblemType = "spj"
	ProblemDynamicRanking ProblemType = "dynamic_ranking"
)

// Case is one input/expected-output pair of a problem.
// time_limit is in microseconds; memory_limit is in kilobytes and is
// informational only.
type Case struct {
	Score       float64 `json:"score" yaml:"score"`
	InputFile   string  `json:"input_file" yaml:"input_file"`
	AnswerFile  string  `json:"answer_file" yaml:"answer_file"`
	TimeLimit   int64   `json:"time_limit" yaml:"time_limit"`
	MemoryLimit int64   `json:"memory_limit" yaml:"memory_limit"`
}

// Misc carries per-problem options for modes the evaluator recognises but
// does not implement yet.
type Misc struct {
	SpecialJudge        []string `json:"special_judge,omitempty" yaml:"special_judge,omitempty"`
	Packing             [][]int  `json:"packing,omitempty" yaml:"packing,omitempty"`
	DynamicRankingRatio float64  `json:"dynamic_ranking_ratio,omitempty" yaml:"dynamic_ranking_ratio,omitempty"`
}

// Problem is immutable after load.
type Problem struct {
	ID    int         `json:"id" yaml:"id"`
	Name  string      `json:"name" yaml:"name"`
	Type  ProblemType `json:"type" yaml:"type"`
	Misc  Misc        `json:"misc,omitempty" yaml:"misc,omitempty"`
	Cases []Case      `json:"cases" yaml:"cases"`
}

// Language describes how a submission is written to disk and compiled.
// The command tokens %INPUT% and %OUTPUT% are substituted at invocation.
type Language struct {
	Name     string   `json:"name" yaml:"name"`
	FileName string   `json:"file_name" yaml:"file_name"`
	Command  []string `json:"command" yaml:"command"`
}

// Server holds the listen address of the HTTP surface.
type Server struct {
	BindAddress string `json:"bind_address" yaml:"bind_address"`
	BindPort    int    `json:"bind_port" yaml:"bind_port"`
}

// Conf is the startup configuration. It is loaded once and never mutated.
type Conf struct {
	Server    Server     `json:"server" yaml:"server"`
	Problems  []Problem  `json:"problems" yaml:"problems"`
	Languages []Language `json:"languages" yaml:"languages"`
}

const (
	defaultBindAddress = "127.0.0.1"
	defaultBindPort    = 12345
)

// LoadConf reads and validates the configuration file at path. JSON is the
// canonical format; .yaml/.yml files are decoded as YAML with the same keys.
func LoadConf(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var conf Conf
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &conf); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if conf.Server.BindAddress == "" {
		conf.Server.BindAddress = defaultBindAddress
	}
	if conf.Server.BindPort == 0 {
		conf.Server.BindPort = defaultBindPort
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &conf, nil
}

func (c *Conf) validate() error {
	if len(c.Problems) == 0 {
		return fmt.Errorf("no problems configured")
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("no languages configured")
	}
	seen := map[int]struct{}{}
	for _, p := range c.Problems {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate problem id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		switch p.Type {
		case ProblemStandard, ProblemStrict, ProblemSpj, ProblemDynamicRanking:
		default:
			return fmt.Errorf("problem %d: unknown type %q", p.ID, p.Type)
		}
		if len(p.Cases) == 0 {
			return fmt.Errorf("problem %d: no cases", p.ID)
		}
	}
	for _, l := range c.Languages {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("language with empty name")
		}
		if len(l.Command) == 0 {
			return fmt.Errorf("language %s: empty command", l.Name)
		}
	}
	return nil
}

// ProblemByID returns the configured problem or nil.
func (c *Conf) ProblemByID(id int) *Problem {
	for i := range c.Problems {
		if c.Problems[i].ID == id {
			return &c.Problems[i]
		}
	}
	return nil
}

// LanguageByName returns the configured language or nil.
func (c *Conf) LanguageByName(name string) *Language {
	for i := range c.Languages {
		if c.Languages[i].Name == name {
			return &c.Languages[i]
		}
	}
	return nil
}

// ProblemIDs returns all configured problem ids in declaration order.
func (c *Conf) ProblemIDs() []int {
	ids := make([]int, 0, len(c.Problems))
	for _, p := range c.Problems {
		ids = append(ids, p.ID)
	}
	return ids
}
