package gateway

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
	"github.com/leofalp/chatgate/providers/tool"
	"github.com/leofalp/chatgate/providers/tool/openapi"
)

// ToolDispatcher executes one tool call. *tool.Dispatcher implements it.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, call ai.ToolCall) (ai.Message, error)
}

// loadCatalog converts every selected tool into a descriptor. A tool that
// cannot be loaded or converted is logged and left out.
func (o *Orchestrator) loadCatalog(ctx context.Context, selections []ToolSelection) *tool.Catalog {
	catalog := tool.NewCatalog()
	for i, selection := range selections {
		descriptor, err := o.loadTool(ctx, selection)
		if err != nil {
			o.warn(ctx, "skipping tool",
				observability.Int("tool.index", i),
				observability.String(observability.AttrToolTitle, selection.Name),
				observability.String(observability.AttrErrorKind, string(ai.KindOf(err))),
				observability.Error(err),
			)
			continue
		}
		catalog.Add(descriptor)
	}
	return catalog
}

func (o *Orchestrator) loadTool(ctx context.Context, selection ToolSelection) (*tool.Descriptor, error) {
	document := selection.Document()
	headers := selection.Headers()

	if len(document) == 0 {
		if selection.ID == "" || o.tools == nil {
			return nil, ai.NewError(ai.KindSchemaConversion, "tool %q has no schema", selection.Name)
		}
		record, err := o.tools.ToolSchema(ctx, selection.ID)
		if err != nil {
			return nil, ai.WrapError(ai.KindSchemaConversion, err, "loading tool %s", selection.ID)
		}
		document = []byte(record.Schema)
		if headers == "" {
			headers = record.CustomHeaders
		}
	}

	result, err := openapi.Convert(document)
	if err != nil {
		return nil, err
	}
	parsedHeaders, err := tool.ParseHeaders(headers)
	if err != nil {
		return nil, err
	}
	return openapi.BuildDescriptor(result, parsedHeaders), nil
}

// dispatchSequential runs the calls one after another in model order.
func dispatchSequential(ctx context.Context, dispatcher ToolDispatcher, calls []ai.ToolCall) ([]ai.Message, error) {
	results := make([]ai.Message, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		message, _ := dispatcher.Dispatch(ctx, call)
		results = append(results, message)
	}
	return results, ctx.Err()
}

// dispatchParallel runs up to limit calls at once. Results keep the order of
// calls regardless of completion order.
func dispatchParallel(ctx context.Context, dispatcher ToolDispatcher, calls []ai.ToolCall, limit int) ([]ai.Message, error) {
	results := make([]ai.Message, len(calls))
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for i, call := range calls {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i], _ = dispatcher.Dispatch(groupCtx, call)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}
