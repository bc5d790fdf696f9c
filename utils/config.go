package utils

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the config file looked up in the working directory and
// $HOME/.config when no --config flag is given.
const DefaultConfigName = "whisper-pipe"

// NamingConfig overrides the naming rule of one output slot.
type NamingConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind"`
	Old  string `mapstructure:"old" yaml:"old"`
	New  string `mapstructure:"new" yaml:"new"`
}

type Config struct {
	WorkDir      string `mapstructure:"work_dir" yaml:"work_dir"`
	Work         string `mapstructure:"work" yaml:"work"`
	Reference    string `mapstructure:"reference" yaml:"reference"`
	AltReference string `mapstructure:"alt_reference" yaml:"alt_reference"`

	ReadPattern string   `mapstructure:"read_pattern" yaml:"read_pattern"`
	Exclude     []string `mapstructure:"exclude" yaml:"exclude"`
	PairToken   string   `mapstructure:"pair_token" yaml:"pair_token"`
	MateToken   string   `mapstructure:"mate_token" yaml:"mate_token"`

	Threads      int           `mapstructure:"threads" yaml:"threads"`
	Jobs         int           `mapstructure:"jobs" yaml:"jobs"`
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout"`
	Resume       bool          `mapstructure:"resume" yaml:"resume"`
	AssumeYes    bool          `mapstructure:"assume_yes" yaml:"assume_yes"`

	Tools         map[string]string       `mapstructure:"tools" yaml:"tools"`
	RequiredTools []string                `mapstructure:"required_tools" yaml:"required_tools"`
	Commands      map[string]string       `mapstructure:"commands" yaml:"commands,omitempty"`
	Naming        map[string]NamingConfig `mapstructure:"naming" yaml:"naming,omitempty"`
	SkipStages    []string                `mapstructure:"skip_stages" yaml:"skip_stages,omitempty"`

	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
	JournalFile string `mapstructure:"journal_file" yaml:"journal_file"`

	// Unresolved maps a tool name to the environment variable its path
	// referenced but that was unset when Resolve ran.
	Unresolved map[string]string `mapstructure:"-" yaml:"-"`
}

// DefaultConfig mirrors the layout the pipeline has always assumed: reads and
// references under the current directory, the Trimmomatic and Picard JARs
// under $WORK.
func DefaultConfig() Config {
	return Config{
		WorkDir:      ".",
		Reference:    "reference/genome.fa",
		AltReference: "reference/genome.fasta",
		ReadPattern:  "*R1*.fastq.gz",
		Exclude:      []string{"*_paired.fastq.gz", "*_unpaired.fastq.gz"},
		PairToken:    "R1",
		MateToken:    "R2",
		Threads:      4,
		Jobs:         1,
		Resume:       true,
		Tools: map[string]string{
			"trimmomatic": "${WORK}/Trimmomatic-0.39/trimmomatic-0.39.jar",
			"adapters":    "${WORK}/Trimmomatic-0.39/adapters/TruSeq3-PE.fa",
			"picard":      "${WORK}/picard.jar",
		},
		RequiredTools: []string{"bash", "java", "bwa", "samtools", "gatk"},
		LogLevel:      "info",
		LogFormat:     "text",
		JournalFile:   "pipeline.log",
	}
}

// LoadConfig reads configuration from path (YAML/JSON/TOML through viper, or the
// plain "key: value" format for .txt/.cfg files). With an empty path it looks
// for whisper-pipe.yaml in the current directory and in $HOME/.config; a
// missing file there is not an error. WORK is always taken from the
// environment when set.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".cfg", ".conf":
		legacy, err := ReadConfig(path, cfg)
		if err != nil {
			return Config{}, err
		}
		if work := os.Getenv("WORK"); work != "" && legacy.Work == "" {
			legacy.Work = work
		}
		return legacy, nil
	}

	v := viper.New()
	if err := v.BindEnv("work", "WORK"); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// ReadConfig parses the line oriented "key: value" config format. Unknown keys
// are ignored, as are lines without a colon. Values not present keep the ones
// in base.
func ReadConfig(configPath string, base Config) (Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return Config{}, err
	}
	defer configFile.Close()
	cfg := base

	scanner := bufio.NewScanner(configFile)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "Reference":
			cfg.Reference = value
		case "AltReference":
			cfg.AltReference = value
		case "InputDir", "WorkDir":
			cfg.WorkDir = value
		case "WORK":
			cfg.Work = value
		case "ReadPattern":
			cfg.ReadPattern = value
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, value)
		case "threads":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, fmt.Errorf("%s: threads: %w", configPath, err)
			}
			cfg.Threads = n
		case "jobs":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Config{}, fmt.Errorf("%s: jobs: %w", configPath, err)
			}
			cfg.Jobs = n
		case "trimmomatic", "picard", "adapters":
			cfg.Tools = cloneTools(cfg.Tools)
			cfg.Tools[key] = value
		case "skip":
			cfg.SkipStages = append(cfg.SkipStages, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func cloneTools(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Resolve makes WorkDir absolute, anchors relative reference paths at it and
// expands ${WORK} (and any other environment variable) in tool paths. A tool
// whose path names an unset or empty variable is recorded in Unresolved.
func (c *Config) Resolve() error {
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	abs, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return err
	}
	c.WorkDir = abs

	if c.Reference == "" || c.AltReference == "" {
		return errors.New("both reference and alt_reference must be set")
	}
	if !filepath.IsAbs(c.Reference) {
		c.Reference = filepath.Join(c.WorkDir, c.Reference)
	}
	if !filepath.IsAbs(c.AltReference) {
		c.AltReference = filepath.Join(c.WorkDir, c.AltReference)
	}
	if c.JournalFile != "" && !filepath.IsAbs(c.JournalFile) {
		c.JournalFile = filepath.Join(c.WorkDir, c.JournalFile)
	}

	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.ReadPattern == "" {
		return errors.New("read_pattern is empty")
	}
	if c.PairToken == "" || c.MateToken == "" || c.PairToken == c.MateToken {
		return fmt.Errorf("pair_token %q and mate_token %q must be distinct and non-empty", c.PairToken, c.MateToken)
	}

	tools := make(map[string]string, len(c.Tools))
	c.Unresolved = nil
	for name, p := range c.Tools {
		tools[name] = os.Expand(p, func(key string) string {
			if key == "WORK" && c.Work != "" {
				return c.Work
			}
			v := os.Getenv(key)
			if v == "" {
				if c.Unresolved == nil {
					c.Unresolved = make(map[string]string)
				}
				c.Unresolved[name] = key
			}
			return v
		})
	}
	c.Tools = tools
	return nil
}

// RenderYAML writes c in the format LoadConfig reads back.
func (c Config) RenderYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
