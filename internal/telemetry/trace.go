package telemetry

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"toolhub/config"
	"toolhub/internal/core"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Trace 未啟用時 provider 為 nil，所有 span 都是 noop
type Trace struct {
	provider    trace.TracerProvider
	serviceName string
}

// NewTrace 建立 OTLP/HTTP exporter；cleanup 會 flush 尚未送出的 span
func NewTrace(conf *config.Configuration) (*Trace, func(), error) {
	if conf == nil || !conf.Telemetry.Trace.Enabled {
		return &Trace{}, func() {}, nil
	}
	options := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(conf.Telemetry.Trace.EndpointUrl),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 5 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  time.Minute,
		}),
		otlptracehttp.WithTimeout(30 * time.Second),
	}
	if conf.Telemetry.TraceInsecure() {
		options = append(options, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), options...)
	if err != nil {
		return nil, nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(conf.Telemetry.TraceSampleRatio()))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(conf.App.Name),
			semconv.ServiceVersion(conf.App.Version),
			semconv.DeploymentEnvironmentName(conf.App.Env),
		)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}
	return &Trace{provider: provider, serviceName: conf.App.Name}, cleanup, nil
}

// NewTraceWithProvider 測試時注入 in-memory provider
func NewTraceWithProvider(provider trace.TracerProvider, serviceName string) *Trace {
	return &Trace{provider: provider, serviceName: serviceName}
}

func (t *Trace) tracer() trace.Tracer {
	if t == nil || t.provider == nil {
		return noop.NewTracerProvider().Tracer("noop")
	}
	return t.provider.Tracer(t.serviceName)
}

func (t *Trace) StartSpanForLayer(
	ctx context.Context,
	spanName core.TraceSpanName,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	return t.tracer().Start(ctx, string(spanName), opts...)
}

// WithSpan 接受 *gin.Context（handler）或 context.Context（service、repository）；
// 未指定名稱時以呼叫端的方法名命名
func (t *Trace) WithSpan(parent any, name ...string) (context.Context, trace.Span, func(error)) {
	spanName := ""
	if len(name) > 0 {
		spanName = strings.TrimSpace(name[0])
	}

	var ctx context.Context
	switch p := parent.(type) {
	case *gin.Context:
		ctx = t.GetTraceContext(p)
		if spanName == "" {
			spanName = spanNameFromGin(p)
		}
	case context.Context:
		ctx = p
		if spanName == "" {
			spanName = prettifyFuncName(callerFuncName(1))
		}
	default:
		ctx = context.Background()
	}
	if spanName == "" {
		spanName = "unknown"
	}

	ctx, span := t.StartSpanForLayer(ctx, core.TraceSpanName(spanName))
	if c, ok := parent.(*gin.Context); ok {
		c.Set(core.ContextTraceKey, ctx)
	}
	return ctx, span, func(err error) { t.EndSpan(span, err) }
}

func (t *Trace) EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// GetTraceContext 取得 TraceEntry 或上一層 handler 留下的 ctx
func (t *Trace) GetTraceContext(c *gin.Context) context.Context {
	if ctx, ok := c.Get(core.ContextTraceKey); ok {
		if traceCtx, ok := ctx.(context.Context); ok {
			return traceCtx
		}
	}
	return c.Request.Context()
}

// ApplyTraceAttributes 依 `trace:"key[,omitempty]"` tag 寫入 span attribute，
// 巢狀 struct 與指標會遞迴展開，map 以 key.mapKey 命名
func (t *Trace) ApplyTraceAttributes(span trace.Span, obj any) {
	if span == nil || obj == nil || !span.IsRecording() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("apply trace attributes: %v", r))
		}
	}()
	span.SetAttributes(traceAttributes(reflect.ValueOf(obj))...)
}

func traceAttributes(val reflect.Value) []attribute.KeyValue {
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	var attributes []attribute.KeyValue
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("trace")
		if tag == "" || tag == "-" {
			continue
		}
		key, options, _ := strings.Cut(tag, ",")
		field := val.Field(i)
		if !field.CanInterface() {
			continue
		}
		if options == "omitempty" && field.IsZero() {
			continue
		}

		switch field.Kind() {
		case reflect.Struct, reflect.Ptr:
			attributes = append(attributes, traceAttributes(field)...)
		case reflect.Map:
			if field.Type().Key().Kind() != reflect.String {
				continue
			}
			iter := field.MapRange()
			for iter.Next() {
				if attr, ok := scalarAttribute(key+"."+iter.Key().String(), iter.Value()); ok {
					attributes = append(attributes, attr)
				}
			}
		default:
			if attr, ok := scalarAttribute(key, field); ok {
				attributes = append(attributes, attr)
			}
		}
	}
	return attributes
}

func scalarAttribute(key string, val reflect.Value) (attribute.KeyValue, bool) {
	if val.Kind() == reflect.Interface && !val.IsNil() {
		val = val.Elem()
	}
	switch val.Kind() {
	case reflect.String:
		return attribute.String(key, val.String()), true
	case reflect.Bool:
		return attribute.Bool(key, val.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return attribute.Int64(key, val.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return attribute.Int64(key, int64(val.Uint())), true
	case reflect.Float32, reflect.Float64:
		return attribute.Float64(key, val.Float()), true
	case reflect.Slice, reflect.Array:
		if val.Type().Elem().Kind() != reflect.String {
			return attribute.KeyValue{}, false
		}
		values := make([]string, val.Len())
		for i := range values {
			values[i] = val.Index(i).String()
		}
		return attribute.StringSlice(key, values), true
	default:
		return attribute.KeyValue{}, false
	}
}

// prettifyFuncName "toolhub/internal/service.(*QuotaService).Enforce.func1" → "QuotaService.Enforce"
func prettifyFuncName(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, ".func"); i >= 0 {
		full = full[:i]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[i+1:]
	}
	full = strings.NewReplacer("(*", "", "(", "", ")", "").Replace(full)
	if start := strings.Index(full, "["); start >= 0 {
		if end := strings.Index(full, "]"); end > start {
			full = full[:start] + full[end+1:]
		}
	}
	return full
}

func spanNameFromGin(c *gin.Context) string {
	if name := c.HandlerName(); name != "" {
		return prettifyFuncName(name)
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}

func callerFuncName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fn.Name()
	}
	return ""
}
