// Package testdata manages the CSV test-case store and sample images.
package testdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abharathkumarr/insect-id-runner/pkg/config"
	"github.com/abharathkumarr/insect-id-runner/pkg/core"
	"github.com/abharathkumarr/insect-id-runner/pkg/logger"
)

var csvHeader = []string{"test_id", "image_name", "expected_species", "image_type", "augmentation"}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Manager owns the test-case CSV and the sample image directories.
type Manager struct {
	casesFile    string
	originalDir  string
	augmentedDir string
	genus        string
	subtypes     []string
	log          *logger.Logger
}

// NewManager creates a manager over the configured paths.
func NewManager(cfg *config.Config, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		casesFile:    cfg.Paths.CasesFile,
		originalDir:  cfg.Paths.OriginalDir,
		augmentedDir: cfg.Paths.AugmentedDir,
		genus:        cfg.Keywords.Genus,
		subtypes:     cfg.Keywords.Subtypes,
		log:          log,
	}
}

// Load reads the test-case CSV, creating the default set first when
// the file does not exist yet.
func (m *Manager) Load() ([]core.TestCase, error) {
	if _, err := os.Stat(m.casesFile); os.IsNotExist(err) {
		m.log.Warn("Test cases file not found, creating default: %s", m.casesFile)
		if err := m.CreateDefault(); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(m.casesFile) //#nosec G304 -- configured path
	if err != nil {
		return nil, fmt.Errorf("open test cases: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse test cases: %w", err)
	}

	if len(records) < 2 {
		return nil, nil
	}

	cases := make([]core.TestCase, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < 5 {
			continue
		}
		cases = append(cases, core.TestCase{
			ID:              row[0],
			ImageName:       row[1],
			ExpectedSpecies: row[2],
			ImageType:       core.ImageSource(row[3]),
			Augmentation:    row[4],
		})
	}

	m.log.Info("Loaded %d test cases from %s", len(cases), m.casesFile)
	return cases, nil
}

// Save writes the test cases back to the CSV.
func (m *Manager) Save(cases []core.TestCase) error {
	if err := os.MkdirAll(filepath.Dir(m.casesFile), 0o755); err != nil {
		return err
	}

	f, err := os.Create(m.casesFile) //#nosec G304 -- configured path
	if err != nil {
		return fmt.Errorf("create test cases: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, tc := range cases {
		row := []string{tc.ID, tc.ImageName, tc.ExpectedSpecies, string(tc.ImageType), tc.Augmentation}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	m.log.Info("Saved %d test cases to %s", len(cases), m.casesFile)
	return nil
}

// CreateDefault writes the built-in starter cases unless the file
// already exists.
func (m *Manager) CreateDefault() error {
	if _, err := os.Stat(m.casesFile); err == nil {
		m.log.Info("Test cases file already exists: %s", m.casesFile)
		return nil
	}

	defaults := []core.TestCase{
		{ID: "TC001", ImageName: "dragonfly_closeup_1.jpg", ExpectedSpecies: m.genus, ImageType: core.ImageOriginal, Augmentation: "none"},
		{ID: "TC002", ImageName: "dragonfly_in_flight_3.jpg", ExpectedSpecies: m.genus, ImageType: core.ImageOriginal, Augmentation: "none"},
		{ID: "TC003", ImageName: "dragonfly_perched_on_leaf_2.jpg", ExpectedSpecies: m.genus, ImageType: core.ImageOriginal, Augmentation: "none"},
	}
	return m.Save(defaults)
}

// ImagePath resolves the full path for a case's image, checking the
// alternate sample directories when the primary location is missing.
func (m *Manager) ImagePath(imageName string, imageType core.ImageSource) string {
	dir := m.originalDir
	if imageType == core.ImageAugmented {
		dir = m.augmentedDir
	}

	path := filepath.Join(dir, imageName)
	if _, err := os.Stat(path); err == nil {
		return path
	}

	m.log.Warn("Image not found: %s", path)
	alternates := []string{
		filepath.Join("samples", "original", imageName),
		filepath.Join("samples", "augmented", imageName),
		filepath.Join("..", "dragonfly_augmentation", "samples", "original", imageName),
		filepath.Join("..", "dragonfly_augmentation", "samples", "augmented", imageName),
	}
	for _, alt := range alternates {
		if _, err := os.Stat(alt); err == nil {
			m.log.Info("Found image at alternative location: %s", alt)
			return alt
		}
	}

	return path
}

// ListImages returns the image file names in the given sample set.
func (m *Manager) ListImages(imageType core.ImageSource) ([]string, error) {
	dir := m.originalDir
	if imageType == core.ImageAugmented {
		dir = m.augmentedDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			m.log.Warn("Image directory not found: %s", dir)
			return nil, nil
		}
		return nil, err
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, allowed := range imageExtensions {
			if ext == allowed {
				images = append(images, entry.Name())
				break
			}
		}
	}
	sort.Strings(images)
	return images, nil
}

// AddAugmentedCases appends cases for augmented variants of an original
// image. IDs derive from the original's case ID: TC004_AUG01, ...
func (m *Manager) AddAugmentedCases(originalImage string, effects []string) error {
	existing, err := m.Load()
	if err != nil {
		return err
	}

	baseID := ""
	for _, tc := range existing {
		if tc.ImageName == originalImage {
			baseID = tc.ID
			break
		}
	}
	if baseID == "" {
		baseID = fmt.Sprintf("TC%03d", len(existing)+1)
	}

	stem := strings.TrimSuffix(originalImage, filepath.Ext(originalImage))
	for i, effect := range effects {
		existing = append(existing, core.TestCase{
			ID:              fmt.Sprintf("%s_AUG%02d", baseID, i+1),
			ImageName:       fmt.Sprintf("%s_%s.png", stem, effect),
			ExpectedSpecies: m.genus,
			ImageType:       core.ImageAugmented,
			Augmentation:    effect,
		})
	}

	if err := m.Save(existing); err != nil {
		return err
	}
	m.log.Info("Added %d augmented test cases", len(effects))
	return nil
}

// GenerateFromDir builds a fresh case list from the images in the
// original sample directory, inferring the expected species from known
// subtype names embedded in the file name. The caller decides whether
// to persist the result with Save.
func (m *Manager) GenerateFromDir() ([]core.TestCase, error) {
	images, err := m.ListImages(core.ImageOriginal)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, core.ErrNoTestCases.WithMessage(fmt.Sprintf("no images found in %s", m.originalDir))
	}

	cases := make([]core.TestCase, 0, len(images))
	for i, name := range images {
		cases = append(cases, core.TestCase{
			ID:              fmt.Sprintf("TC%03d", i+1),
			ImageName:       name,
			ExpectedSpecies: m.inferSpecies(name),
			ImageType:       core.ImageOriginal,
			Augmentation:    "none",
		})
	}

	return cases, nil
}

func (m *Manager) inferSpecies(imageName string) string {
	nameLower := strings.ToLower(imageName)
	for _, subtype := range m.subtypes {
		if strings.Contains(nameLower, subtype) {
			return subtype
		}
	}
	return m.genus
}
