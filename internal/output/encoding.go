package output

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crosspost/crosspost/internal/core"
	"github.com/crosspost/crosspost/internal/core/platform"
)

// EncodingFormatter renders results as indented JSON or YAML documents.
type EncodingFormatter struct {
	Encoding Format
}

func (f *EncodingFormatter) FormatPlatforms(rules []platform.Rule) (string, error) {
	return f.encode(platformInfos(rules))
}

func (f *EncodingFormatter) FormatCompose(result *ComposeResult) (string, error) {
	return f.encode(result)
}

func (f *EncodingFormatter) FormatShareLinks(links map[string]string) (string, error) {
	if links == nil {
		links = map[string]string{}
	}
	return f.encode(links)
}

func (f *EncodingFormatter) FormatPreview(result *PreviewResult) (string, error) {
	return f.encode(result)
}

func (f *EncodingFormatter) FormatDraft(draft core.ComposeDraft) (string, error) {
	return f.encode(draft)
}

func (f *EncodingFormatter) FormatVariations(items []core.ContentVariation) (string, error) {
	if items == nil {
		items = []core.ContentVariation{}
	}
	return f.encode(items)
}

func (f *EncodingFormatter) FormatPreferences(prefs core.Preferences) (string, error) {
	return f.encode(prefs)
}

func (f *EncodingFormatter) encode(v any) (string, error) {
	if f.Encoding == FormatYAML {
		return encodeYAML(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// encodeYAML reuses the json tags by round-tripping through a generic value,
// so both encodings share one field naming.
func encodeYAML(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
