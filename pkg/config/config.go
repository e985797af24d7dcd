// Package config handles configuration for insect-id-runner.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the explicit configuration value object handed to the
// orchestrator at construction. Everything the original tooling kept
// as module-level constants lives here.
type Config struct {
	App      AppConfig     `yaml:"app"`
	Server   ServerConfig  `yaml:"server"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Paths    PathConfig    `yaml:"paths"`
	Keywords KeywordConfig `yaml:"keywords"`
	Taps     TapConfig     `yaml:"taps"`
	RuleFile string        `yaml:"ruleFile"` // Optional JS classification rules
}

// AppConfig identifies the app under test.
type AppConfig struct {
	Package  string `yaml:"package"`  // Android package name
	Activity string `yaml:"activity"` // Launcher activity
}

// ServerConfig configures the on-device automation server connection.
type ServerConfig struct {
	DevicePort int `yaml:"devicePort"` // UIAutomator2 server port on device
	LocalPort  int `yaml:"localPort"`  // Forwarded local port (0 = auto)
}

// TimeoutConfig holds every bounded wait. No wait in the runner is
// unbounded.
type TimeoutConfig struct {
	Element         time.Duration `yaml:"element"`         // Per-strategy element lookup
	Explicit        time.Duration `yaml:"explicit"`        // Post-condition checks
	Implicit        time.Duration `yaml:"implicit"`        // Server-side implicit wait
	ScanWait        time.Duration `yaml:"scanWait"`        // Scan-completion ceiling
	ManualWait      time.Duration `yaml:"manualWait"`      // Manual image-selection ceiling
	Settle          time.Duration `yaml:"settle"`          // Pause between cases/steps
	AdDwell         time.Duration `yaml:"adDwell"`         // Mandatory ad display time
	MaxCommFailures int           `yaml:"maxCommFailures"` // Consecutive session failures before assuming done
}

// PathConfig holds test data and artifact directories.
type PathConfig struct {
	TestDataDir  string `yaml:"testDataDir"`
	CasesFile    string `yaml:"casesFile"`
	OriginalDir  string `yaml:"originalDir"`
	AugmentedDir string `yaml:"augmentedDir"`
	ResultsDir   string `yaml:"resultsDir"`
	ReportsDir   string `yaml:"reportsDir"`
	LogFile      string `yaml:"logFile"`
	DeviceDir    string `yaml:"deviceDir"` // Where images are pushed on-device
}

// KeywordConfig carries the text-mining tables. Order matters for the
// slices that drive classification precedence.
type KeywordConfig struct {
	Genus            string              `yaml:"genus"`            // Primary positive-identification term
	GenusVariants    []string            `yaml:"genusVariants"`    // Spelling variants of the genus term
	ExpectedSpecies  []string            `yaml:"expectedSpecies"`  // Acceptable species labels
	Subtypes         []string            `yaml:"subtypes"`         // Known expected-species subtypes
	SubtypeSynonyms  map[string][]string `yaml:"subtypeSynonyms"`  // Family/genus synonyms per subtype
	NoInsect         []string            `yaml:"noInsect"`         // Phrases meaning "no insect in image"
	NoIdentification []string            `yaml:"noIdentification"` // Phrases meaning the app gave up
	Uncertain        []string            `yaml:"uncertain"`        // Legacy hedging phrases (display alias only)
	Errors           []string            `yaml:"errors"`           // Error-screen phrases
	Scanning         []string            `yaml:"scanning"`         // Busy-indicator phrases
	StillScanning    []string            `yaml:"stillScanning"`    // Phrases that keep the scan wait looping
	Results          []string            `yaml:"results"`          // Result-screen marker phrases
	SkipChrome       []string            `yaml:"skipChrome"`       // UI chrome to ignore during extraction
	AdMarkers        []string            `yaml:"adMarkers"`        // Advertisement indicators
	Permissions      []string            `yaml:"permissions"`      // Permission dialog button labels
}

// TapConfig holds last-resort raw-tap coordinates derived from known
// layout bounds. Device-model dependent by nature; overridable.
type TapConfig struct {
	GetStartedX int `yaml:"getStartedX"`
	GetStartedY int `yaml:"getStartedY"`
	SkipX       int `yaml:"skipX"`
	SkipY       int `yaml:"skipY"`
}

// Default returns the built-in configuration matching the app the
// tool was developed against.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Package:  "com.janogroupllc.pdfphotos",
			Activity: "com.janogroupllc.PdfPhotos.MainActivity",
		},
		Server: ServerConfig{
			DevicePort: 6790,
		},
		Timeouts: TimeoutConfig{
			Element:         1 * time.Second,
			Explicit:        2 * time.Second,
			Implicit:        5 * time.Second,
			ScanWait:        30 * time.Second,
			ManualWait:      300 * time.Second,
			Settle:          2 * time.Second,
			AdDwell:         5 * time.Second,
			MaxCommFailures: 5,
		},
		Paths: PathConfig{
			TestDataDir:  "test_data",
			CasesFile:    filepath.Join("test_data", "dragonfly_test_cases.csv"),
			OriginalDir:  filepath.Join("samples", "original"),
			AugmentedDir: filepath.Join("samples", "augmented"),
			ResultsDir:   "test_results",
			ReportsDir:   "reports",
			LogFile:      filepath.Join(GetLogsDir(), "insect-id-runner.log"),
			DeviceDir:    "/sdcard/Download",
		},
		Keywords: KeywordConfig{
			Genus:         "dragonfly",
			GenusVariants: []string{"dragonfly", "dragon fly", "dragon-fly"},
			ExpectedSpecies: []string{
				"darner", "skimmer", "dragonfly", "dragon fly",
				"aeshnidae", "libellulidae", "aeshna", "libellula", "odonata",
			},
			Subtypes: []string{"darner", "skimmer"},
			SubtypeSynonyms: map[string][]string{
				"darner":  {"darner", "aeshnidae", "aeshna", "hawker"},
				"skimmer": {"skimmer", "libellulidae", "libellula", "percher"},
			},
			NoInsect: []string{
				"no insect detected",
				"no insect visible",
				"no insect",
				"couldn't detect any insects",
				"could not detect any insects",
				"we couldn't detect",
				"tips for better photos",
			},
			NoIdentification: []string{
				"not found", "no match", "unable to identify", "cannot identify",
				"no result", "try again", "no insect detected", "invalid",
			},
			Uncertain: []string{
				"uncertain", "maybe", "possibly", "likely", "probably",
				"could be", "might be", "similar to",
			},
			Errors:   []string{"error", "failed", "try again", "invalid"},
			Scanning: []string{"Finalizing profile", "Finalizing", "Scanning", "Processing"},
			// "Processing" marks a scan starting but also lingers on some
			// result screens, so it must not hold the wait loop.
			StillScanning: []string{"Finalizing profile", "Finalizing", "Scanning"},
			Results: []string{
				"Dragonfly", "No Insect Detected", "No insect detected",
				"No insect visible", "species of", "Damselfly", "Tips for Better Photos",
			},
			SkipChrome: []string{
				"Basic info", "Effects", "Observation", "Identify",
				"Scientific name", "a species of", "Dragonfly or Damselfly",
			},
			AdMarkers:   []string{"Test Ad", "Advertisement", "Ad"},
			Permissions: []string{"While using the app", "Allow", "OK"},
		},
		Taps: TapConfig{
			// Centers measured from the onboarding screen's UI dump
			GetStartedX: 540,
			GetStartedY: 2148,
			SkipX:       933,
			SkipY:       258,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// Returns the defaults when neither exists.
func LoadFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	return Default(), nil
}
