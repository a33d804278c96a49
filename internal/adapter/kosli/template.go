package kosli

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

const templateVersion = 1

type templateFile struct {
	Version int           `yaml:"version"`
	Trail   templateTrail `yaml:"trail"`
}

type templateTrail struct {
	Attestations []templateAttestation `yaml:"attestations"`
}

type templateAttestation struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// RenderTemplate renders the YAML template a trail or flow is created with.
// Every expected attestation is generic.
func RenderTemplate(tmpl domain.TrailTemplate) ([]byte, error) {
	f := templateFile{Version: templateVersion}
	for _, name := range tmpl.Attestations {
		f.Trail.Attestations = append(f.Trail.Attestations, templateAttestation{Name: name, Type: "generic"})
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("render trail template: %w", err)
	}
	return out, nil
}

// ParseTemplate reads a rendered template back.
func ParseTemplate(data []byte) (domain.TrailTemplate, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.TrailTemplate{}, fmt.Errorf("parse trail template: %w", err)
	}
	if f.Version != templateVersion {
		return domain.TrailTemplate{}, fmt.Errorf("unsupported trail template version %d", f.Version)
	}
	var tmpl domain.TrailTemplate
	for _, a := range f.Trail.Attestations {
		tmpl.Attestations = append(tmpl.Attestations, a.Name)
	}
	return tmpl, nil
}
