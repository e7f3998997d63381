package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pediago/pediago-api/dosing"
	"github.com/pediago/pediago-api/logging"
	"github.com/pediago/pediago-api/posology"
)

//go:embed reference/*.json
var referenceFS embed.FS

const (
	drugsFile     = "drugs.json"
	rulesFile     = "rules.json"
	overridesFile = "overrides.json"
	protocolsFile = "protocols.json"
	posologyFile  = "posology.json"
)

// Parser builds a Catalog from the JSON reference files. With an empty
// dataDir it reads the embedded copies; a non-empty dataDir lets an
// operator ship corrected data without rebuilding the binary.
type Parser struct {
	dataDir     string
	sheetPolicy posology.UpperBoundPolicy
}

func NewParser(dataDir string, sheetPolicy posology.UpperBoundPolicy) *Parser {
	return &Parser{dataDir: dataDir, sheetPolicy: sheetPolicy}
}

// ParseCatalog loads, decodes and normalizes all reference files. It
// returns an error on the first file that fails to decode; partial
// catalogs are never returned.
func (p *Parser) ParseCatalog() (*Catalog, error) {
	c := Empty()

	if err := p.readJSON(drugsFile, &c.Drugs); err != nil {
		return nil, err
	}
	for _, d := range c.Drugs {
		c.DrugsByID[d.ID] = d
	}

	if err := p.readJSON(rulesFile, &c.Rules); err != nil {
		return nil, err
	}
	if err := p.readJSON(overridesFile, &c.Overrides); err != nil {
		return nil, err
	}

	if err := p.readJSON(protocolsFile, &c.Protocols); err != nil {
		return nil, err
	}
	for _, proto := range c.Protocols {
		c.ProtocolsBySlug[proto.Slug] = proto
	}

	var rawSheets []posology.RawSheetEntry
	if err := p.readJSON(posologyFile, &rawSheets); err != nil {
		return nil, err
	}
	entries, excluded := posology.NormalizeEntries(rawSheets)
	c.Sheets = posology.NewTable(entries, p.sheetPolicy)
	c.ExcludedSheetEntries = excluded

	logging.Info("Catalog loaded",
		"drugs", len(c.Drugs),
		"rules", len(c.Rules),
		"protocols", len(c.Protocols),
		"posology_cards", c.Sheets.Len(),
		"posology_excluded", excluded,
	)

	return c, nil
}

// OverridesFor exposes the raw override tables for validation before a
// catalog goes live.
func (c *Catalog) OverridesFor(drugID string) []dosing.WeightOverride {
	return c.Overrides[drugID]
}

func (p *Parser) readJSON(name string, dst any) error {
	data, err := p.readFile(name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (p *Parser) readFile(name string) ([]byte, error) {
	if p.dataDir != "" {
		path := filepath.Join(p.dataDir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Missing files in the data dir fall back to the embedded copy,
		// so an operator only overrides the files that changed.
		logging.Debug("Reference file not in data dir, using embedded copy", "file", name)
	}
	return referenceFS.ReadFile("reference/" + name)
}
