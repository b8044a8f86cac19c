package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/chatgate/providers/ai"
	"github.com/leofalp/chatgate/providers/observability"
	"github.com/leofalp/chatgate/providers/tool"
)

// Orchestrator drives one chat request through the completion protocol:
// a streamed completion when no tools are selected, otherwise a
// non-streaming tool-enabled round, tool dispatch and a streamed final round.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	credentials CredentialSource
	tools       ToolSource
	models      ModelSource
	newProvider ProviderFactory
	middlewares []MiddlewareConfig
	observer    observability.Provider
	httpClient  *http.Client
	toolClient  *http.Client
	dispatcher  ToolDispatcher

	parallelTools bool
	parallelLimit int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithToolSource resolves tool selections that carry only an id.
func WithToolSource(source ToolSource) Option {
	return func(o *Orchestrator) { o.tools = source }
}

// WithModelSource resolves custom models for the custom vendor.
func WithModelSource(source ModelSource) Option {
	return func(o *Orchestrator) { o.models = source }
}

// WithProviderFactory replaces NewProvider, mainly for tests.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(o *Orchestrator) { o.newProvider = factory }
}

// WithMiddleware appends provider middlewares. The first is outermost.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(o *Orchestrator) { o.middlewares = append(o.middlewares, middlewares...) }
}

// WithObserver attaches an observability provider to every request context.
func WithObserver(observer observability.Provider) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

// WithHTTPClient sets the client used for vendor calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Orchestrator) { o.httpClient = client }
}

// WithToolClient sets the client used for tool calls.
func WithToolClient(client *http.Client) Option {
	return func(o *Orchestrator) { o.toolClient = client }
}

// WithToolDispatcher replaces the HTTP tool dispatcher. The default builds a
// tool.Dispatcher over each request's catalog.
func WithToolDispatcher(dispatcher ToolDispatcher) Option {
	return func(o *Orchestrator) { o.dispatcher = dispatcher }
}

// WithParallelTools dispatches the tool calls of a round concurrently, at most
// limit at a time (0 means unbounded). Tool messages are still appended in
// call order.
func WithParallelTools(limit int) Option {
	return func(o *Orchestrator) {
		o.parallelTools = true
		o.parallelLimit = limit
	}
}

// New returns an orchestrator reading vendor profiles from credentials.
func New(credentials CredentialSource, opts ...Option) (*Orchestrator, error) {
	if credentials == nil {
		return nil, errors.New("gateway: credential source is required")
	}
	o := &Orchestrator{
		credentials: credentials,
		newProvider: NewProvider,
	}
	for _, opt := range opts {
		opt(o)
	}
	for i, middleware := range o.middlewares {
		if middleware.Send == nil {
			return nil, fmt.Errorf("gateway: middleware %d has a nil Send function", i)
		}
	}
	return o, nil
}

// Outcome describes how a request ran. On failure it is returned together
// with the error and its last transition is StateFailed.
type Outcome struct {
	RequestID   string
	Transitions []State
	Transcript  Transcript

	// Direct holds the round-one answer when tools were selected but none was
	// called. Nothing is streamed in that case.
	Direct   string
	Streamed bool
	Chunks   int
}

// State returns the last state entered.
func (o *Outcome) State() State {
	if len(o.Transitions) == 0 {
		return ""
	}
	return o.Transitions[len(o.Transitions)-1]
}

// Run executes request, writing streamed output to sink.
func (o *Orchestrator) Run(ctx context.Context, request Request, sink Sink) (*Outcome, error) {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	outcome := &Outcome{RequestID: request.ID}
	start := time.Now()

	var span observability.Span
	if o.observer != nil {
		ctx = observability.ContextWithObserver(ctx, o.observer)
		ctx, span = o.observer.StartSpan(ctx, observability.SpanChatRequest,
			observability.String(observability.AttrRequestID, request.ID),
			observability.String(observability.AttrLLMProvider, string(request.Vendor)),
			observability.String(observability.AttrLLMModel, request.ChatSettings.Model),
		)
		ctx = observability.ContextWithSpan(ctx, span)
		defer span.End()
	}

	err := o.run(ctx, request, sink, outcome)
	if err != nil {
		o.enter(ctx, outcome, StateFailed)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, string(ai.KindOf(err)))
		}
		o.warn(ctx, "chat request failed",
			observability.String(observability.AttrRequestID, request.ID),
			observability.String(observability.AttrErrorKind, string(ai.KindOf(err))),
			observability.Error(err),
		)
	} else if span != nil {
		span.SetStatus(observability.StatusOK, "")
		span.SetAttributes(observability.Int(observability.AttrStreamChunks, outcome.Chunks))
	}

	if o.observer != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.observer.Counter(observability.MetricChatRequests).Add(ctx, 1,
			observability.String(observability.AttrLLMProvider, string(request.Vendor)),
			observability.String(observability.AttrStatus, status),
		)
		o.observer.Histogram(observability.MetricChatDuration).Record(ctx, time.Since(start).Seconds(),
			observability.String(observability.AttrLLMProvider, string(request.Vendor)),
		)
	}
	return outcome, err
}

func (o *Orchestrator) run(ctx context.Context, request Request, sink Sink, outcome *Outcome) error {
	o.enter(ctx, outcome, StateDrafting)
	if err := request.Validate(); err != nil {
		return err
	}

	provider, model, err := o.provider(ctx, request)
	if err != nil {
		return err
	}
	send := buildSendChain(provider, o.middlewares)
	stream := buildStreamChain(provider, o.middlewares)

	transcript := NewTranscript(request.Messages)
	outcome.Transcript = transcript

	chatRequest := ai.ChatRequest{Model: model}
	if request.ChatSettings.Temperature != nil {
		chatRequest.GenerationConfig = &ai.GenerationConfig{Temperature: request.ChatSettings.Temperature}
	}

	if len(request.SelectedTools) > 0 {
		catalog := o.loadCatalog(ctx, request.SelectedTools)
		chatRequest.Tools = catalog.Functions()

		o.enter(ctx, outcome, StateAwaitingFirstCompletion)
		first := chatRequest
		first.Messages = transcript.Messages()
		response, err := send(ctx, first)
		if err != nil {
			return err
		}
		if response == nil {
			return ai.NewError(ai.KindUpstreamRequest, "empty response from %s", provider.Vendor())
		}
		transcript = transcript.Append(response.AssistantMessage())
		outcome.Transcript = transcript

		if len(response.ToolCalls) == 0 {
			o.enter(ctx, outcome, StateNoTools)
			outcome.Direct = response.Content
			o.enter(ctx, outcome, StateDone)
			return nil
		}

		o.enter(ctx, outcome, StateToolRound)
		o.debug(ctx, "dispatching tool calls", observability.Int(observability.AttrRequestToolCalls, len(response.ToolCalls)))
		results, err := o.dispatch(ctx, catalog, response.ToolCalls)
		if err != nil {
			return err
		}
		transcript = transcript.Append(results...)
		outcome.Transcript = transcript
	}

	o.enter(ctx, outcome, StateAwaitingFinalCompletion)
	final := chatRequest
	final.Messages = transcript.Messages()
	chatStream, err := stream(ctx, final)
	if err != nil {
		return err
	}

	o.enter(ctx, outcome, StateStreaming)
	outcome.Streamed = true
	outcome.Chunks, err = Forward(ctx, chatStream, sink)
	if err != nil {
		return err
	}

	o.enter(ctx, outcome, StateDone)
	return nil
}

// provider resolves the profile for the request's vendor and returns the
// adapter and the model id to send.
func (o *Orchestrator) provider(ctx context.Context, request Request) (ai.Provider, string, error) {
	model := request.ChatSettings.Model

	var cfg ai.ProviderConfig
	if request.Vendor == ai.VendorCustom {
		if o.models == nil {
			return nil, "", ai.MissingCredentialError(ai.VendorCustom)
		}
		custom, err := o.models.CustomModel(ctx, request.CustomModelID)
		if err != nil {
			return nil, "", ai.WrapError(ai.KindUnsupportedModel, err, "custom model %s not found", request.CustomModelID)
		}
		cfg = ai.ProviderConfig{Vendor: ai.VendorCustom, APIKey: custom.APIKey, BaseURL: custom.BaseURL}
		if model == "" {
			model = custom.ModelID
		}
	} else {
		var err error
		cfg, err = o.credentials.Credentials(ctx, request.Vendor)
		if err != nil {
			return nil, "", err
		}
		cfg.Vendor = request.Vendor
		if cfg.APIKey == "" {
			return nil, "", ai.MissingCredentialError(request.Vendor)
		}
	}

	provider, err := o.newProvider(cfg)
	if err != nil {
		return nil, "", err
	}
	if o.httpClient != nil {
		provider = provider.WithHttpClient(o.httpClient)
	}
	return provider, model, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, catalog *tool.Catalog, calls []ai.ToolCall) ([]ai.Message, error) {
	dispatcher := o.dispatcher
	if dispatcher == nil {
		httpDispatcher := tool.NewDispatcher(catalog)
		if o.toolClient != nil {
			httpDispatcher.Client = o.toolClient
		}
		dispatcher = httpDispatcher
	}

	if o.parallelTools && len(calls) > 1 {
		return dispatchParallel(ctx, dispatcher, calls, o.parallelLimit)
	}
	return dispatchSequential(ctx, dispatcher, calls)
}

func (o *Orchestrator) enter(ctx context.Context, outcome *Outcome, state State) {
	outcome.Transitions = append(outcome.Transitions, state)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(string(state))
	}
	o.debug(ctx, "state transition",
		observability.String(observability.AttrRequestID, outcome.RequestID),
		observability.String(observability.AttrGatewayState, string(state)),
	)
}

func (o *Orchestrator) debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.observer != nil {
		o.observer.Debug(ctx, msg, attrs...)
	}
}

func (o *Orchestrator) warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.observer != nil {
		o.observer.Warn(ctx, msg, attrs...)
	}
}
