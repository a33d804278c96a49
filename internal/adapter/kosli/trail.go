package kosli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

type beginTrailPayload struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	UserData    map[string]any `json:"user_data"`
}

type createFlowPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

type genericAttestationPayload struct {
	AttestationName string         `json:"attestation_name"`
	IsCompliant     bool           `json:"is_compliant"`
	UserData        map[string]any `json:"user_data,omitempty"`
}

// EnsureTrail makes sure the trail exists, beginning it from tmpl when it
// does not. Beginning a trail that a concurrent caller just created is not
// an error.
func (c *Client) EnsureTrail(ctx context.Context, name string, tmpl domain.TrailTemplate) error {
	_, err := c.do(ctx, http.MethodGet, c.url("trails", c.opts.Org, c.opts.Flow, name), nil)
	switch {
	case err == nil:
		slog.Debug("trail exists", "flow", c.opts.Flow, "trail", name)
		return nil
	case !errors.Is(err, port.ErrTrailNotFound):
		return fmt.Errorf("get trail %s: %w", name, err)
	}

	templateYAML, err := RenderTemplate(tmpl)
	if err != nil {
		return err
	}
	form := []formItem{
		{field: "data_json", json: beginTrailPayload{
			Name:        name,
			Description: tmpl.Description,
			UserData:    map[string]any{},
		}},
		{field: "template_file", fileName: "template.yml", data: templateYAML},
	}
	_, err = c.do(ctx, http.MethodPut, c.url("trails", c.opts.Org, c.opts.Flow), form)
	if err != nil && !isAlreadyThere(err) {
		return fmt.Errorf("begin trail %s: %w", name, err)
	}
	slog.Info("trail begun", "flow", c.opts.Flow, "trail", name)
	return nil
}

// Attach uploads ev as a generic attestation on trail. Several files are
// bundled into one tar.gz attachment.
func (c *Client) Attach(ctx context.Context, trail string, ev domain.Evidence) error {
	form := []formItem{
		{field: "data_json", json: genericAttestationPayload{
			AttestationName: ev.Name,
			IsCompliant:     true,
			UserData:        ev.UserData,
		}},
	}

	if len(ev.Files) > 0 {
		attachment, cleanup, err := Bundle(ev.Name, ev.Files)
		if err != nil {
			return fmt.Errorf("bundle evidence %s: %w", ev.Name, err)
		}
		defer cleanup()
		form = append(form, formItem{field: "attachment_file", file: attachment})
	}

	if _, err := c.do(ctx, http.MethodPost, c.url("attestations", c.opts.Org, c.opts.Flow, "trail", trail, "generic"), form); err != nil {
		return fmt.Errorf("attest %s on trail %s: %w", ev.Name, trail, err)
	}
	slog.Info("evidence attached", "flow", c.opts.Flow, "trail", trail, "evidence", ev.Name)
	return nil
}

// EnsureFlow creates or updates the flow from tmpl. The endpoint is an upsert.
func (c *Client) EnsureFlow(ctx context.Context, tmpl domain.TrailTemplate) error {
	templateYAML, err := RenderTemplate(tmpl)
	if err != nil {
		return err
	}
	form := []formItem{
		{field: "data_json", json: createFlowPayload{
			Name:        c.opts.Flow,
			Description: tmpl.Description,
			Visibility:  "private",
		}},
		{field: "template_file", fileName: "template.yml", data: templateYAML},
	}
	if _, err := c.do(ctx, http.MethodPut, c.url("flows", c.opts.Org, "template_file"), form); err != nil {
		return fmt.Errorf("create flow %s: %w", c.opts.Flow, err)
	}
	slog.Info("flow ready", "flow", c.opts.Flow)
	return nil
}
