package iga

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// The demo catalog lives in an embedded YAML file so the set can be edited
// without touching code.
//
//go:embed fallback_catalog.yaml
var fallbackCatalogYAML []byte

var loadFallback = sync.OnceValue(func() []models.CatalogItem {
	var doc struct {
		Items []struct {
			ID          string `yaml:"id"`
			Label       string `yaml:"label"`
			Description string `yaml:"description"`
			Type        string `yaml:"type"`
		} `yaml:"items"`
	}
	if err := yaml.Unmarshal(fallbackCatalogYAML, &doc); err != nil {
		panic("iga: invalid embedded fallback catalog: " + err.Error())
	}
	items := make([]models.CatalogItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, models.CatalogItem{
			ID:          item.ID,
			Label:       item.Label,
			Description: item.Description,
			Type:        item.Type,
		})
	}
	return items
})

// fallbackItems returns a copy of the built-in catalog so callers cannot
// mutate the shared set.
func fallbackItems() []models.CatalogItem {
	base := loadFallback()
	items := make([]models.CatalogItem, len(base))
	copy(items, base)
	return items
}
