package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// sectionTarget returns the struct an INI section maps onto.
func (c *Config) sectionTarget(name string) (any, bool) {
	switch name {
	case "world":
		return &c.World, true
	case "population":
		return &c.Population, true
	case "genome":
		return &c.Genome, true
	case "sensors":
		return &c.Sensors, true
	case "actions":
		return &c.Actions, true
	case "signals":
		return &c.Signals, true
	case "challenge":
		return &c.Challenge, true
	case "altruism":
		return &c.Altruism, true
	case "telemetry":
		return &c.Telemetry, true
	}
	return nil, false
}

// mergeINI overlays an INI parameter file. Plain sections such as [world]
// set base values; a section named "world@500" becomes a scheduled change
// applied from generation 500.
func (c *Config) mergeINI(path string) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	for _, sec := range file.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return fmt.Errorf("%w: %s: keys outside a section", ErrInvalid, path)
			}
			continue
		}

		base, gen, scheduled := strings.Cut(name, "@")
		target, ok := c.sectionTarget(base)
		if !ok {
			return fmt.Errorf("%w: %s: unknown section [%s]", ErrInvalid, path, name)
		}

		if err := checkKeys(sec, target); err != nil {
			return fmt.Errorf("%w: %s: section [%s]: %w", ErrInvalid, path, name, err)
		}
		if !scheduled {
			if err := sec.StrictMapTo(target); err != nil {
				return fmt.Errorf("parsing section [%s]: %w", name, err)
			}
			continue
		}

		generation, err := strconv.Atoi(gen)
		if err != nil || generation < 0 {
			return fmt.Errorf("%w: %s: bad generation in section [%s]", ErrInvalid, path, name)
		}
		// Parse into a scratch value so bad scheduled values fail at load.
		var scratch Config
		st, _ := scratch.sectionTarget(base)
		if err := sec.StrictMapTo(st); err != nil {
			return fmt.Errorf("%w: parsing section [%s]: %w", ErrInvalid, name, err)
		}
		c.Schedule = append(c.Schedule, ScheduledChange{
			Generation: generation,
			Set:        sectionNode(base, sec),
		})
	}
	return nil
}

// checkKeys rejects keys that do not name a field of target. MapTo skips
// them silently, which hides typos.
func checkKeys(sec *ini.Section, target any) error {
	known, err := ini.Empty().NewSection(sec.Name())
	if err != nil {
		return err
	}
	if err := known.ReflectFrom(target); err != nil {
		return err
	}
	for _, key := range sec.KeyStrings() {
		if !known.HasKey(key) {
			return fmt.Errorf("unknown key %q", key)
		}
	}
	return nil
}

// sectionNode converts an INI section into the YAML mapping
// {section: {key: value, ...}}. Scalars are left untagged so YAML resolves
// numbers and booleans the same way it does for YAML files.
func sectionNode(section string, sec *ini.Section) yaml.Node {
	body := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range sec.Keys() {
		body.Content = append(body.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key.Name()},
			&yaml.Node{Kind: yaml.ScalarNode, Value: key.Value()},
		)
	}
	return yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: section},
			body,
		},
	}
}
