// Package catalog loads the YAML message catalogs and registers them with
// golang.org/x/text/message so printers can localize UI strings.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the source locale every other catalog falls back to.
const BaseLocale = "en-US"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds every loaded locale keyed by locale tag.
type Bundle struct {
	locales map[string]map[string]string
	matcher language.Matcher
	tags    []language.Tag
}

//go:embed locales/*/*.yaml
var embedded embed.FS

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
	defaultErr    error
)

// Default returns the embedded bundle, registered with x/text on first use.
func Default() (*Bundle, error) {
	defaultOnce.Do(func() {
		bundle, err := LoadFS(embedded)
		if err != nil {
			defaultErr = err
			return
		}
		if err := bundle.Register(); err != nil {
			defaultErr = err
			return
		}
		defaultBundle = bundle
	})
	return defaultBundle, defaultErr
}

// LoadFS reads locales/<locale>/<namespace>.yaml files from catalogFS.
func LoadFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.add(p, file); err != nil {
			return nil, err
		}
	}
	if _, ok := bundle.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	locales := bundle.Locales()
	// The matcher's first tag is its fallback, so the base locale leads.
	bundle.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range locales {
		if locale == BaseLocale {
			continue
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		bundle.tags = append(bundle.tags, tag)
	}
	bundle.matcher = language.NewMatcher(bundle.tags)
	return bundle, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	dirLocale := path.Base(path.Dir(p))
	fileNamespace := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale != dirLocale {
		return fmt.Errorf("catalog %s: locale %q must match directory %q", p, locale, dirLocale)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace != fileNamespace {
		return fmt.Errorf("catalog %s: namespace %q must match file name %q", p, namespace, fileNamespace)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages are required", p)
	}

	messages, ok := b.locales[locale]
	if !ok {
		messages = map[string]string{}
		b.locales[locale] = messages
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: blank message key", p)
		}
		if !strings.HasPrefix(key, namespace+".") {
			return fmt.Errorf("catalog %s: key %q must start with %q", p, key, namespace+".")
		}
		if _, dup := messages[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q", p, key)
		}
		messages[key] = value
	}
	return nil
}

// Register installs every message with x/text/message. Locales with a region
// also register under their base language so "es" serves "es-MX".
func (b *Bundle) Register() error {
	if b == nil {
		return nil
	}
	for _, locale := range b.Locales() {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale %q: %w", locale, err)
		}
		tags := []language.Tag{tag}
		if base, conf := tag.Base(); conf != language.No {
			if baseTag, err := language.Parse(base.String()); err == nil && baseTag.String() != tag.String() {
				tags = append(tags, baseTag)
			}
		}
		for key, value := range b.locales[locale] {
			for _, t := range tags {
				if err := message.SetString(t, key, value); err != nil {
					return fmt.Errorf("register %s %s: %w", locale, key, err)
				}
			}
		}
	}
	return nil
}

// Locales returns the loaded locale tags, sorted.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// LocaleMessages returns a copy of the messages defined for locale, without
// base-locale fallback.
func (b *Bundle) LocaleMessages(locale string) map[string]string {
	if b == nil {
		return nil
	}
	src := b.locales[strings.TrimSpace(locale)]
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

// Message returns a raw message with base-locale fallback.
func (b *Bundle) Message(locale, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	if messages, ok := b.locales[strings.TrimSpace(locale)]; ok {
		if value, ok := messages[key]; ok {
			return value, true
		}
	}
	value, ok := b.locales[BaseLocale][key]
	return value, ok
}

// Match resolves an Accept-Language style preference list to a supported tag.
func (b *Bundle) Match(preferences ...string) language.Tag {
	if b == nil || b.matcher == nil {
		return language.MustParse(BaseLocale)
	}
	_, idx := language.MatchStrings(b.matcher, preferences...)
	if idx < 0 || idx >= len(b.tags) {
		return b.tags[0]
	}
	return b.tags[idx]
}

// Printer returns a message printer for the best match of preferences.
func (b *Bundle) Printer(preferences ...string) *message.Printer {
	return message.NewPrinter(b.Match(preferences...))
}
