package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMalformedPrefix is returned for prefix entries that are not non-empty strings.
var ErrMalformedPrefix = errors.New("malformed message prefix")

// DefaultMessagePrefixes lists key prefixes of interface messages that wikis do not
// customise: skin and view strings, special page group names and the per-element
// tooltip, access key and namespace tab messages. Keys defined by the catalog are
// never skipped even when they match.
var DefaultMessagePrefixes = []string{
	"specialpages-specialpagegroup-",
	"oasis-view-",
	"oasis-action-",
	"apioutput-view-",
	"fallback-view-",
	"mobileve-view-",
	"fandommobile-view-",
	"hydra-view-",
	"hydra-action-",
	"hydradark-view-",
	"hydradark-action-",
	"minerva-view-",
	"minerva-action-",
	"exvius-view-",
	"exvius-action-",
	"conversion-ns",
	"tooltip-",
	"accesskey-",
	"nstab-",
}

type prefixesDocument struct {
	MessagePrefixes []yaml.Node `yaml:"message_prefixes"`
}

// LoadPrefixesFile reads the message_prefixes list from a YAML document.
func LoadPrefixesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefixes file: %w", err)
	}
	return ParsePrefixes(data)
}

// ParsePrefixes decodes a YAML document holding a message_prefixes list. Every entry
// must be a non-empty string scalar.
func ParsePrefixes(data []byte) ([]string, error) {
	var doc prefixesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPrefix, err)
	}

	prefixes := make([]string, 0, len(doc.MessagePrefixes))
	for i, node := range doc.MessagePrefixes {
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
			return nil, fmt.Errorf("%w: entry %d (line %d) is not a string", ErrMalformedPrefix, i, node.Line)
		}
		prefixes = append(prefixes, node.Value)
	}

	if err := validatePrefixes(prefixes); err != nil {
		return nil, err
	}
	return prefixes, nil
}

func validatePrefixes(prefixes []string) error {
	for i, p := range prefixes {
		if p == "" {
			return fmt.Errorf("%w: entry %d is empty", ErrMalformedPrefix, i)
		}
	}
	return nil
}
