package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/hession/slotmate/internal/logger"
	"github.com/hession/slotmate/internal/plasmic"
	"github.com/hession/slotmate/internal/stream"
)

// ReplaceSlotContentName is the registered tool name
const ReplaceSlotContentName = "replace_slot_content"

// Renderer renders a component through the Codegen API
type Renderer interface {
	Render(ctx context.Context, req plasmic.RenderRequest) (*plasmic.RenderResult, error)
}

// ReplaceSlotParams are the tool arguments after defaults are applied
type ReplaceSlotParams struct {
	Component    string       `mapstructure:"component"`
	Slot         string       `mapstructure:"slot"`
	Content      string       `mapstructure:"content"`
	Hydrate      bool         `mapstructure:"hydrate"`
	EmbedHydrate bool         `mapstructure:"embedHydrate"`
	Mode         plasmic.Mode `mapstructure:"mode"`
}

// DefaultReplaceSlotParams returns the parameter defaults
func DefaultReplaceSlotParams() ReplaceSlotParams {
	return ReplaceSlotParams{
		Hydrate:      true,
		EmbedHydrate: true,
		Mode:         plasmic.ModePreview,
	}
}

// DecodeReplaceSlotParams decodes tool arguments on top of the defaults
func DecodeReplaceSlotParams(args map[string]any) (ReplaceSlotParams, error) {
	params := DefaultReplaceSlotParams()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &params,
		ErrorUnused: false,
	})
	if err != nil {
		return params, err
	}
	if err := decoder.Decode(args); err != nil {
		return params, err
	}
	return params, nil
}

// ReplaceSlotContentTool swaps a slot's content and returns the rendered HTML
type ReplaceSlotContentTool struct {
	renderer Renderer
	log      *logger.Logger
}

// NewReplaceSlotContentTool creates the tool. A nil logger uses the package default.
func NewReplaceSlotContentTool(renderer Renderer, log *logger.Logger) *ReplaceSlotContentTool {
	return &ReplaceSlotContentTool{renderer: renderer, log: log}
}

func (t *ReplaceSlotContentTool) Name() string {
	return ReplaceSlotContentName
}

func (t *ReplaceSlotContentTool) Description() string {
	return "Replace a slot's content in a Plasmic component using the Codegen REST API and return rendered HTML."
}

func (t *ReplaceSlotContentTool) Parameters() []ParameterDef {
	defaults := DefaultReplaceSlotParams()
	return []ParameterDef{
		{
			Name:        "component",
			Type:        "string",
			Description: "The Plasmic component name",
			Required:    true,
			NonEmpty:    true,
		},
		{
			Name:        "slot",
			Type:        "string",
			Description: "The slot name to override",
			Required:    true,
			NonEmpty:    true,
		},
		{
			Name:        "content",
			Type:        "string",
			Description: "The new content to inject into the slot",
			Required:    true,
		},
		{
			Name:        "hydrate",
			Type:        "boolean",
			Description: "Include hydration markup in the rendered HTML",
			Default:     defaults.Hydrate,
		},
		{
			Name:        "embedHydrate",
			Type:        "boolean",
			Description: "Embed the hydration script inline",
			Default:     defaults.EmbedHydrate,
		},
		{
			Name:        "mode",
			Type:        "string",
			Description: "Content version to render against",
			Enum:        []string{string(plasmic.ModePreview), string(plasmic.ModePublished)},
			Default:     string(defaults.Mode),
		},
	}
}

func (t *ReplaceSlotContentTool) Execute(ctx context.Context, args map[string]any, sink stream.Sink) (Result, error) {
	params, err := DecodeReplaceSlotParams(args)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode arguments: %w", err)
	}
	return t.Replace(ctx, params, sink), nil
}

// Replace performs one render call. Events reach sink only on success, in
// the order component, slot, html.
func (t *ReplaceSlotContentTool) Replace(ctx context.Context, params ReplaceSlotParams, sink stream.Sink) Result {
	sink = stream.OrDiscard(sink)
	log := logger.OrDefault(t.log).With(
		"tool", t.Name(),
		"invocation_id", uuid.NewString(),
		"component", params.Component,
		"slot", params.Slot,
	)

	res, err := t.renderer.Render(ctx, plasmic.RenderRequest{
		Component:      params.Component,
		ComponentProps: map[string]string{params.Slot: params.Content},
		Mode:           params.Mode,
		Hydrate:        params.Hydrate,
		EmbedHydrate:   params.EmbedHydrate,
	})
	if err != nil {
		log.Warn("render failed (%s): %v", plasmic.KindOf(err), err)
		return Failed(err)
	}

	sink.Emit(stream.Event{Type: stream.EventComponent, Content: params.Component})
	sink.Emit(stream.Event{Type: stream.EventSlot, Content: params.Slot})
	sink.Emit(stream.Event{Type: stream.EventHTML, Content: res.HTML})

	log.Info("slot replaced, %d bytes of html", len(res.HTML))
	return Succeeded(fmt.Sprintf("Replaced slot \"%s\" in component \"%s\".", params.Slot, params.Component), res.HTML)
}
