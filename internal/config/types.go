package config

// Config is the top-level structure parsed from pipeline YAML.
type Config struct {
	Pipeline Pipeline `yaml:"pipeline"`
}

// Pipeline defines the full generation pipeline: metadata, generation and
// correction settings, checks, and ordered phases.
type Pipeline struct {
	Name          string            `yaml:"name"`
	Generation    Generation        `yaml:"generation"`
	Correction    Correction        `yaml:"correction"`
	Context       map[string]string `yaml:"context"`
	DefaultChecks []string          `yaml:"default_checks"`
	Checks        map[string]Check  `yaml:"checks"`
	Phases        []Phase           `yaml:"phases"`
}

// Generation configures the collaborator that produces artifact drafts.
// Provider "fallback" skips the remote collaborator entirely.
type Generation struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// Correction bounds the rule-driven correction engine.
type Correction struct {
	MaxIterations int `yaml:"max_iterations"`
}

// Check defines a deterministic quality check run against generated artifacts.
type Check struct {
	Command    string `yaml:"command"`
	Parser     string `yaml:"parser"`
	Timeout    string `yaml:"timeout"`
	FixCommand string `yaml:"fix_command"`
	AutoFix    bool   `yaml:"auto_fix"`
}

// Phase defines a single ordered generation phase.
type Phase struct {
	ID             string   `yaml:"id"`
	Description    string   `yaml:"description"`
	DependsOn      []string `yaml:"depends_on"`
	Outputs        []string `yaml:"outputs"`
	PromptTemplate string   `yaml:"prompt_template"`
	SkipChecks     bool     `yaml:"skip_checks"`
	Checks         []string `yaml:"checks"`
}
