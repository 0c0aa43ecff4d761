package config

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/spf13/viper"
)

type fileTaxonomy struct {
	Sections []taxonomydomain.Section `mapstructure:"sections"`
}

type taxonomySet map[taxonomydomain.Kind]*taxonomydomain.Taxonomy

// TaxonomyHolder serves the taxonomy declared in taxonomy.yml and swaps it
// atomically when the file changes.
type TaxonomyHolder struct {
	current atomic.Value // holds taxonomySet
}

func NewTaxonomyHolder() (*TaxonomyHolder, error) {
	v := viper.New()

	v.SetConfigName("taxonomy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/backoffice/config")
	v.AddConfigPath("/etc/backoffice")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &TaxonomyHolder{}
	holder.current.Store(taxonomySet{})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no file: the database source is expected to be used
			return holder, nil
		}
		return nil, err
	}

	set, err := decodeTaxonomies(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(set)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeTaxonomies(v)
		if err != nil {
			log.Printf("[taxonomy-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[taxonomy-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticTaxonomyHolder returns a holder pinned to the given taxonomies.
func NewStaticTaxonomyHolder(taxonomies ...*taxonomydomain.Taxonomy) *TaxonomyHolder {
	set := taxonomySet{}
	for _, t := range taxonomies {
		if t == nil {
			continue
		}
		set[t.Kind] = t.Clone()
	}
	holder := &TaxonomyHolder{}
	holder.current.Store(set)
	return holder
}

// Get returns a copy of the taxonomy for kind.
func (h *TaxonomyHolder) Get(kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, bool) {
	set, _ := h.current.Load().(taxonomySet)
	t, ok := set[kind]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func decodeTaxonomies(v *viper.Viper) (taxonomySet, error) {
	var raw map[string]fileTaxonomy
	if err := v.UnmarshalKey("taxonomy", &raw); err != nil {
		return nil, err
	}

	set := taxonomySet{}
	for name, ft := range raw {
		kind, err := taxonomydomain.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("taxonomy.%s: %w", name, err)
		}
		t := &taxonomydomain.Taxonomy{Kind: kind, Sections: ft.Sections}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("taxonomy.%s: %w", name, err)
		}
		set[kind] = t
	}
	return set, nil
}
